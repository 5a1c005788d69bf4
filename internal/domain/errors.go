package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrInvalidResponse    = errors.New("invalid response")
	ErrNetwork            = errors.New("network error")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// GeocodeError attributes a geocoding failure to a single city.
type GeocodeError struct {
	City string
	Err  error
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocode %q: %v", e.City, e.Err)
}

func (e *GeocodeError) Unwrap() error { return e.Err }
