package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Immutable geographic coordinates in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinates builds coordinates and rejects non-finite or out-of-range values.
func NewCoordinates(lat, lon float64) (Coordinates, error) {
	c := Coordinates{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

// Validate returns ErrInvalidCoordinates unless latitude is within [-90, 90]
// and longitude within [-180, 180].
func (c Coordinates) Validate() error {
	if !isFinite(c.Latitude) || !isFinite(c.Longitude) {
		return fmt.Errorf("%w: non-finite value (lat=%v lon=%v)", ErrInvalidCoordinates, c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, c.Longitude)
	}
	return nil
}

// Point returns the coordinates as an orb point, which is ordered [lon, lat].
func (c Coordinates) Point() orb.Point { return orb.Point{c.Longitude, c.Latitude} }

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
