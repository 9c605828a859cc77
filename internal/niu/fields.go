package niu

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Trip fields which are converted before being returned.
const (
	TripStartTime  = "startTime"
	TripEndTime    = "endTime"
	TripRidingTime = "ridingtime"
	TripThumb      = "track_thumb"
)

const (
	tripTimestampLayout = "2006-01-02 15:04:05"
	ridingTimeLayout    = "15:04:05"

	thumbHost         = "app-api.niucache.com"
	thumbOverseasHost = "app-api-fk.niu.com"
	thumbPath         = "/track/thumb/"
	thumbOverseasPath = "/track/overseas/thumb/"
)

var (
	batteryPath  = []string{"data", "batteries", "compartmentA"}
	motorPath    = []string{"data"}
	distancePath = []string{"data", "lastTrack"}
	// The API spells the position object this way.
	positionPath = []string{"data", "postion"}
	overallPath  = []string{"data"}
	tripPath     = []string{"data", "0"}
)

// BatteryField returns a field of the battery compartment A.
func (c *Client) BatteryField(name string) (interface{}, error) {
	return c.field(CategoryBattery, batteryPath, name)
}

// MotorField returns a top level field of the motor index.
func (c *Client) MotorField(name string) (interface{}, error) {
	return c.field(CategoryMotor, motorPath, name)
}

// DistanceField returns a field of the last track summary in the motor index.
func (c *Client) DistanceField(name string) (interface{}, error) {
	return c.field(CategoryMotor, distancePath, name)
}

// PositionField returns a field of the last known position in the motor index.
func (c *Client) PositionField(name string) (interface{}, error) {
	return c.field(CategoryMotor, positionPath, name)
}

// OverallField returns a field of the aggregated riding statistics.
func (c *Client) OverallField(name string) (interface{}, error) {
	return c.field(CategoryOverall, overallPath, name)
}

// TripField returns a field of the most recent trip, rendering times and thumbnail URLs for display.
func (c *Client) TripField(name string) (interface{}, error) {
	raw, err := c.field(CategoryTrack, tripPath, name)
	if err != nil {
		return nil, err
	}

	switch name {
	case TripStartTime, TripEndTime:
		ms, ok := raw.(float64)
		if !ok {
			return nil, errors.Errorf("trip field %s: expected number, got %T", name, raw)
		}

		return FormatTripTimestamp(int64(ms)), nil
	case TripRidingTime:
		seconds, ok := raw.(float64)
		if !ok {
			return nil, errors.Errorf("trip field %s: expected number, got %T", name, raw)
		}

		return FormatRidingTime(int64(seconds)), nil
	case TripThumb:
		u, ok := raw.(string)
		if !ok {
			return nil, errors.Errorf("trip field %s: expected string, got %T", name, raw)
		}

		return RewriteThumbURL(u), nil
	default:
		return raw, nil
	}
}

// IgnitionOn returns the ignition state reported in the motor index.
func (c *Client) IgnitionOn() (bool, error) {
	raw, err := c.MotorField("isAccOn")
	if err != nil {
		return false, err
	}

	switch v := raw.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	default:
		return false, errors.Errorf("isAccOn: unexpected type %T", raw)
	}
}

// BatteryCharge returns the charge of battery compartment A in percent.
func (c *Client) BatteryCharge() (float64, error) {
	raw, err := c.BatteryField("batteryCharging")
	if err != nil {
		return 0, err
	}

	charge, ok := raw.(float64)
	if !ok {
		return 0, errors.Errorf("batteryCharging: expected number, got %T", raw)
	}

	return charge, nil
}

// FormatTripTimestamp renders epoch milliseconds as a local calendar time.
func FormatTripTimestamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format(tripTimestampLayout)
}

// FormatRidingTime renders a number of seconds as a clock reading, wrapping after 24 hours.
func FormatRidingTime(seconds int64) string {
	return time.Unix(seconds, 0).UTC().Format(ridingTimeLayout)
}

// RewriteThumbURL points a track thumbnail at the CDN serving overseas accounts.
func RewriteThumbURL(u string) string {
	u = strings.ReplaceAll(u, thumbHost, thumbOverseasHost)

	return strings.ReplaceAll(u, thumbPath, thumbOverseasPath)
}

func (c *Client) field(category Category, path []string, name string) (interface{}, error) {
	snapshot, ok := c.Snapshot(category)
	if !ok {
		return nil, errors.Wrapf(ErrFieldAbsent, "no %s snapshot fetched yet", category)
	}

	full := make([]string, 0, len(path)+1)
	full = append(full, path...)
	full = append(full, name)

	value, ok := snapshot.Lookup(full...)
	if !ok {
		return nil, errors.Wrapf(ErrFieldAbsent, "%s snapshot has no %s", category, strings.Join(full, "."))
	}

	return value, nil
}
