package niu

import (
	"strconv"
	"time"
)

// Category identifies one of the telemetry snapshots kept by the client.
type Category string

// Snapshot categories.
const (
	CategoryBattery Category = "battery"
	CategoryMotor   Category = "motor"
	CategoryOverall Category = "overall"
	CategoryTrack   Category = "track"
)

// Token is a bearer token issued by the NIU account service.
type Token struct {
	AccessToken string
	// ExpiresIn is zero when the service did not report the token lifetime.
	ExpiresIn time.Duration
}

// Vehicle identifies the scooter the client operates on.
type Vehicle struct {
	SerialNumber string
	Name         string
	Index        int
}

// Payload is a decoded NIU API response kept verbatim.
type Payload map[string]interface{}

// Status returns the application status carried in the body.
func (p Payload) Status() (int, bool) {
	n, ok := p["status"].(float64)
	if !ok {
		return 0, false
	}

	return int(n), true
}

// Description returns the human readable status description carried in the body.
func (p Payload) Description() string {
	desc, _ := p["desc"].(string)

	return desc
}

// Lookup walks the payload along the path. Numeric segments index into arrays.
func (p Payload) Lookup(path ...string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(p)

	for _, segment := range path {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = next
		case []interface{}:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}

			current = node[i]
		default:
			return nil, false
		}
	}

	if current == nil {
		return nil, false
	}

	return current, true
}

// loginResponse represents the response of the account service token endpoint.
type loginResponse struct {
	Status      int    `json:"status"`
	Description string `json:"desc"`
	Data        struct {
		Token *struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   *int64 `json:"expires_in"`
		} `json:"token"`
	} `json:"data"`
}

// vehicleListResponse represents the list of scooters bound to the account.
type vehicleListResponse struct {
	Data struct {
		Items []struct {
			SerialNumber string `json:"sn_id"`
			Name         string `json:"scooter_name"`
		} `json:"items"`
	} `json:"data"`
}

// tripListBody represents a trip list request body.
type tripListBody struct {
	Index        string `json:"index"`
	PageSize     int    `json:"pagesize"`
	SerialNumber string `json:"sn"`
}

// ignitionBody represents an ignition command request body.
type ignitionBody struct {
	SerialNumber string `json:"sn"`
	Type         string `json:"type"`
}
