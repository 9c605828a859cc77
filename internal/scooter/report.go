package scooter

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-niu-adapter/internal/niu"
)

// Report keys.
const (
	ReportSerialNumber        = "serial_number"
	ReportName                = "name"
	ReportBatteryCharge       = "battery_charge"
	ReportCharging            = "charging"
	ReportIgnition            = "ignition"
	ReportSpeed               = "speed"
	ReportEstimatedMileage    = "estimated_mileage"
	ReportLatitude            = "latitude"
	ReportLongitude           = "longitude"
	ReportLastTrackDistance   = "last_track_distance"
	ReportLastTrackRidingTime = "last_track_riding_time"
	ReportTotalMileage        = "total_mileage"
	ReportDaysInUse           = "days_in_use"
	ReportLastTripStart       = "last_trip_start"
	ReportLastTripEnd         = "last_trip_end"
	ReportLastTripRidingTime  = "last_trip_riding_time"
	ReportLastTripDistance    = "last_trip_distance"
	ReportLastTripThumb       = "last_trip_thumb"
)

// Report is a flat telemetry summary of a scooter, sent as a string map.
type Report map[string]string

type reportField struct {
	key string
	get func(c *niu.Client) (interface{}, error)
}

func battery(name string) func(c *niu.Client) (interface{}, error) {
	return func(c *niu.Client) (interface{}, error) { return c.BatteryField(name) }
}

func motor(name string) func(c *niu.Client) (interface{}, error) {
	return func(c *niu.Client) (interface{}, error) { return c.MotorField(name) }
}

func ignition(c *niu.Client) (interface{}, error) {
	return c.IgnitionOn()
}

func position(name string) func(c *niu.Client) (interface{}, error) {
	return func(c *niu.Client) (interface{}, error) { return c.PositionField(name) }
}

func distance(name string) func(c *niu.Client) (interface{}, error) {
	return func(c *niu.Client) (interface{}, error) { return c.DistanceField(name) }
}

func overall(name string) func(c *niu.Client) (interface{}, error) {
	return func(c *niu.Client) (interface{}, error) { return c.OverallField(name) }
}

func trip(name string) func(c *niu.Client) (interface{}, error) {
	return func(c *niu.Client) (interface{}, error) { return c.TripField(name) }
}

var reportFields = map[niu.Category][]reportField{
	niu.CategoryBattery: {
		{key: ReportBatteryCharge, get: battery("batteryCharging")},
		{key: ReportCharging, get: battery("isCharging")},
	},
	niu.CategoryMotor: {
		{key: ReportIgnition, get: ignition},
		{key: ReportSpeed, get: motor("nowSpeed")},
		{key: ReportEstimatedMileage, get: motor("estimatedMileage")},
		{key: ReportLatitude, get: position("lat")},
		{key: ReportLongitude, get: position("lng")},
		{key: ReportLastTrackDistance, get: distance("distance")},
		{key: ReportLastTrackRidingTime, get: distance("ridingTime")},
	},
	niu.CategoryOverall: {
		{key: ReportTotalMileage, get: overall("totalMileage")},
		{key: ReportDaysInUse, get: overall("bindDaysCount")},
	},
	niu.CategoryTrack: {
		{key: ReportLastTripStart, get: trip(niu.TripStartTime)},
		{key: ReportLastTripEnd, get: trip(niu.TripEndTime)},
		{key: ReportLastTripRidingTime, get: trip(niu.TripRidingTime)},
		{key: ReportLastTripDistance, get: trip("distance")},
		{key: ReportLastTripThumb, get: trip(niu.TripThumb)},
	},
}

// buildReport reads the snapshots of the given groups. Fields which are absent are left out.
func buildReport(c *niu.Client, vehicle *niu.Vehicle, groups []niu.Category) Report {
	report := Report{
		ReportSerialNumber: vehicle.SerialNumber,
		ReportName:         vehicle.Name,
	}

	for _, group := range groups {
		for _, field := range reportFields[group] {
			value, err := field.get(c)
			if err != nil {
				log.WithError(err).WithField("field", field.key).Debug("scooter: report field skipped")

				continue
			}

			report[field.key] = formatValue(value)
		}
	}

	return report
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
