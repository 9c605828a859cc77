package niu

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrTransport is returned when the request could not be delivered or its response could not be read.
	ErrTransport = errors.New("niu: transport failure")
	// ErrAuth is returned when the login was rejected or its response was malformed.
	ErrAuth = errors.New("niu: authentication failed")
	// ErrInvalidCredentials is returned together with ErrAuth when the account service rejected the credentials.
	ErrInvalidCredentials = errors.New("niu: credentials rejected")
	// ErrIndexOutOfRange is returned when the configured scooter index does not exist on the account.
	ErrIndexOutOfRange = errors.New("niu: scooter index out of range")
	// ErrFieldAbsent is returned by accessors when no snapshot was fetched yet or the field is missing.
	ErrFieldAbsent = errors.New("niu: field absent")
)

// HTTPError is returned when the NIU API responds with an unexpected HTTP status code.
type HTTPError struct {
	Err        error
	StatusCode int
	Body       string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("%s, status code: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e HTTPError) Unwrap() error {
	return e.Err
}

// ApplicationStatusError is returned when the HTTP call succeeded but the body reports a failure status.
type ApplicationStatusError struct {
	Status      int
	Description string
}

func (e ApplicationStatusError) Error() string {
	return fmt.Sprintf("niu: application status %d: %s", e.Status, e.Description)
}

func transportError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func authError(err error) error {
	return fmt.Errorf("%w: %w", ErrAuth, err)
}
