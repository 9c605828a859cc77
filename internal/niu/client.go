package niu

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-niu-adapter/internal/config"
)

// Client is a wrapper around the NIU HTTP Client with authentication capabilities.
// It serves a single scooter selected by the credentials and keeps the last fetched snapshot per category.
//
// Calls are blocking. Callers sharing one Client must not issue overlapping calls.
type Client struct {
	http        HTTPClient
	tokens      *TokenManager
	credentials config.Credentials

	mu        sync.RWMutex
	vehicle   *Vehicle
	snapshots map[Category]Payload
}

// NewClient returns a new Client for the scooter selected by credentials.
func NewClient(http HTTPClient, tokens *TokenManager, credentials config.Credentials) *Client {
	return &Client{
		http:        http,
		tokens:      tokens,
		credentials: credentials,
		snapshots:   make(map[Category]Payload),
	}
}

// Tokens returns the token manager used by the client.
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// ResolveVehicle returns the identity of the configured scooter, resolving it on the first call.
func (c *Client) ResolveVehicle() (*Vehicle, error) {
	c.mu.RLock()
	vehicle := c.vehicle
	c.mu.RUnlock()

	if vehicle != nil {
		return vehicle, nil
	}

	token, err := c.accessToken()
	if err != nil {
		return nil, err
	}

	vehicles, err := c.http.Vehicles(token)
	if err != nil {
		return nil, errors.Wrap(err, "client: failed to resolve vehicle")
	}

	index := c.credentials.ScooterID
	if index < 0 || index >= len(vehicles) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "client: scooter index %d, account has %d scooter(s)", index, len(vehicles))
	}

	resolved := vehicles[index]

	c.mu.Lock()
	c.vehicle = &resolved
	c.mu.Unlock()

	log.WithField("sn", resolved.SerialNumber).
		WithField("name", resolved.Name).
		Debug("client: vehicle resolved")

	return &resolved, nil
}

// FetchBattery refreshes the battery snapshot.
func (c *Client) FetchBattery() error {
	return c.fetch(CategoryBattery, func(token string, v *Vehicle) (Payload, error) {
		return c.http.BatteryInfo(token, v.SerialNumber, c.credentials.Language)
	})
}

// FetchMotorIndex refreshes the motor index snapshot.
func (c *Client) FetchMotorIndex() error {
	return c.fetch(CategoryMotor, func(token string, v *Vehicle) (Payload, error) {
		return c.http.MotorIndex(token, v.SerialNumber, c.credentials.Language)
	})
}

// FetchOverallTally refreshes the aggregated statistics snapshot.
func (c *Client) FetchOverallTally() error {
	return c.fetch(CategoryOverall, func(token string, v *Vehicle) (Payload, error) {
		return c.http.OverallTally(token, v.SerialNumber)
	})
}

// FetchTripList refreshes the trip list snapshot.
func (c *Client) FetchTripList() error {
	return c.fetch(CategoryTrack, func(token string, v *Vehicle) (Payload, error) {
		return c.http.TripList(token, v.SerialNumber)
	})
}

// Fetch refreshes the snapshot of the given category.
func (c *Client) Fetch(category Category) error {
	switch category {
	case CategoryBattery:
		return c.FetchBattery()
	case CategoryMotor:
		return c.FetchMotorIndex()
	case CategoryOverall:
		return c.FetchOverallTally()
	case CategoryTrack:
		return c.FetchTripList()
	default:
		return errors.Errorf("client: unknown snapshot category: %s", category)
	}
}

// SetIgnition switches the scooter ignition. Cached snapshots are not updated by the command.
func (c *Client) SetIgnition(on bool) error {
	token, err := c.accessToken()
	if err != nil {
		return err
	}

	vehicle, err := c.ResolveVehicle()
	if err != nil {
		return err
	}

	if err := c.http.SetIgnition(token, vehicle.SerialNumber, c.credentials.Language, on); err != nil {
		return fmt.Errorf("client: failed to set ignition for %s: %w", vehicle.SerialNumber, err)
	}

	log.WithField("sn", vehicle.SerialNumber).
		WithField("on", on).
		Info("client: ignition command accepted")

	return nil
}

// Snapshot returns the last fetched payload of the category.
func (c *Client) Snapshot(category Category) (Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.snapshots[category]

	return p, ok
}

func (c *Client) fetch(category Category, call func(token string, v *Vehicle) (Payload, error)) error {
	token, err := c.accessToken()
	if err != nil {
		return err
	}

	vehicle, err := c.ResolveVehicle()
	if err != nil {
		return err
	}

	payload, err := call(token, vehicle)
	if err != nil {
		return fmt.Errorf("client: failed to fetch %s snapshot: %w", category, err)
	}

	c.mu.Lock()
	c.snapshots[category] = payload
	c.mu.Unlock()

	return nil
}

func (c *Client) accessToken() (string, error) {
	token, err := c.tokens.AccessToken(c.credentials)
	if err != nil {
		return "", fmt.Errorf("unable to get access token: %w", err)
	}

	return token, nil
}
