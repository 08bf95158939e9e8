package hue

import (
	"errors"
	"fmt"

	"github.com/amimof/huego"
)

// Sentinel errors for hub operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnauthorized is returned when the hub rejects the API username or token (hub error 1).
	ErrUnauthorized = errors.New("hue: unauthorized user")

	// ErrNotFound is returned when a sensor or resource does not exist (hub error 3).
	ErrNotFound = errors.New("hue: resource not available")

	// ErrLinkButton is returned when pairing without the link button pressed (hub error 101).
	ErrLinkButton = errors.New("hue: link button not pressed")

	// ErrRequestFailed covers transport failures and any other hub error.
	ErrRequestFailed = errors.New("hue: request failed")

	ErrInvalidSensorID = errors.New("hue: invalid sensor id")

	ErrDiscoveryFailed = errors.New("hue: bridge discovery failed")

	ErrPairingFailed = errors.New("hue: pairing failed")

	// ErrInvalidStatus is returned when a CLIPGenericStatus value is not an integer.
	ErrInvalidStatus = errors.New("hue: status must be an integer")

	ErrUnknownMode = errors.New("hue: unknown hub mode")
)

// Hub error types, as reported in {"error":{"type":N}} replies.
const (
	errorTypeUnauthorized = 1
	errorTypeNotAvailable = 3
	errorTypeLinkButton   = 101
)

// APIError is an error reply from the hub.
type APIError struct {
	Type        int
	Address     string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hue: error %d at %s: %s", e.Type, e.Address, e.Description)
}

// Unwrap maps the hub error type onto a sentinel error.
func (e *APIError) Unwrap() error {
	switch e.Type {
	case errorTypeUnauthorized:
		return ErrUnauthorized
	case errorTypeNotAvailable:
		return ErrNotFound
	case errorTypeLinkButton:
		return ErrLinkButton
	default:
		return ErrRequestFailed
	}
}

// hubError converts an error reply decoded by huego into an *APIError.
func hubError(err error) error {
	var herr *huego.APIError
	if errors.As(err, &herr) {
		return &APIError{Type: herr.Type, Address: herr.Address, Description: herr.Description}
	}
	return err
}
