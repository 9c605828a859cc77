package scooter

import (
	"strings"

	"github.com/futurehomeno/edge-niu-adapter/internal/niu"
)

// Sensors which require the overall tally to be fetched.
const (
	SensorTotalMileage = "totalMileage"
	SensorDaysInUse    = "DaysInUse"
)

// SensorLastTrackThumb selects the thumbnail of the last trip. Any sensor with the LastTrack prefix requires the trip list.
const SensorLastTrackThumb = "LastTrackThumb"

const lastTrackPrefix = "LastTrack"

// ReportGroups returns the snapshot categories to fetch for the selected sensors.
// Battery and motor index are always fetched. A new slice is returned on every call.
func ReportGroups(sensors []string) []niu.Category {
	groups := []niu.Category{niu.CategoryBattery, niu.CategoryMotor}

	var overall, track bool

	for _, s := range sensors {
		switch {
		case s == SensorTotalMileage || s == SensorDaysInUse:
			overall = true
		case strings.HasPrefix(s, lastTrackPrefix):
			track = true
		}
	}

	if overall {
		groups = append(groups, niu.CategoryOverall)
	}

	if track {
		groups = append(groups, niu.CategoryTrack)
	}

	return groups
}
