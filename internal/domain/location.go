package domain

import (
	"errors"
	"time"
)

// UserLocation is the viewer's last known position and when it was acquired.
type UserLocation struct {
	Coordinates Coordinates
	AcquiredAt  time.Time
}

// PositionOptions mirror the one-shot geolocation request options.
type PositionOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaximumAge         time.Duration
}

// DefaultPositionOptions requests a low accuracy fix, waits at most 10
// seconds and accepts positions up to 5 minutes old.
func DefaultPositionOptions() PositionOptions {
	return PositionOptions{
		EnableHighAccuracy: false,
		Timeout:            10 * time.Second,
		MaximumAge:         5 * time.Minute,
	}
}

// LocationErrorCode follows the standard geolocation failure codes.
// LocationUnsupported is a sentinel outside that range.
type LocationErrorCode int

const (
	LocationUnsupported      LocationErrorCode = 0
	LocationPermissionDenied LocationErrorCode = 1
	LocationUnavailable      LocationErrorCode = 2
	LocationTimeout          LocationErrorCode = 3
)

var (
	ErrLocationUnsupported      = errors.New("geolocation is not supported")
	ErrLocationPermissionDenied = errors.New("location permission denied")
	ErrLocationUnavailable      = errors.New("location information is unavailable")
	ErrLocationTimeout          = errors.New("location request timed out")
)

// LocationError is returned to the presentation layer as a value so it can
// pick a retry or enable-permissions prompt.
type LocationError struct {
	Code    LocationErrorCode `json:"code"`
	Message string            `json:"message"`
}

// NewLocationError builds a LocationError with the default message for code.
// Unknown codes collapse to LocationUnavailable.
func NewLocationError(code LocationErrorCode) *LocationError {
	switch code {
	case LocationUnsupported, LocationPermissionDenied, LocationUnavailable, LocationTimeout:
	default:
		code = LocationUnavailable
	}
	return &LocationError{Code: code, Message: code.sentinel().Error()}
}

func (e *LocationError) Error() string { return e.Message }

// Is lets errors.Is match a LocationError against the sentinel for its code.
func (e *LocationError) Is(target error) bool {
	return target == e.Code.sentinel()
}

func (c LocationErrorCode) sentinel() error {
	switch c {
	case LocationUnsupported:
		return ErrLocationUnsupported
	case LocationPermissionDenied:
		return ErrLocationPermissionDenied
	case LocationTimeout:
		return ErrLocationTimeout
	default:
		return ErrLocationUnavailable
	}
}
