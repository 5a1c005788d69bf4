// Package geo holds the stateless great-circle helpers used by nearby
// discovery. All distances are kilometers on a spherical Earth.
package geo

import (
	"artist-discovery-service/internal/domain"
	"cmp"
	"fmt"
	"math"
	"slices"
)

const earthRadiusKm = 6371.0

// CalculateDistance returns the Haversine distance between a and b in
// kilometers, rounded to two decimals.
func CalculateDistance(a, b domain.Coordinates) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("calculate distance: from: %w", err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("calculate distance: to: %w", err)
	}

	lat1 := degreesToRadians(a.Latitude)
	lat2 := degreesToRadians(b.Latitude)
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h just outside [0, 1] for near-antipodal points.
	h = math.Min(math.Max(h, 0), 1)

	c := 2 * math.Asin(math.Sqrt(h))

	return roundTo2(earthRadiusKm * c), nil
}

// IsWithinRadius reports whether target lies at most radiusKm from center.
func IsWithinRadius(center, target domain.Coordinates, radiusKm float64) (bool, error) {
	if math.IsNaN(radiusKm) {
		return false, fmt.Errorf("is within radius: %w: radius is NaN", domain.ErrInvalidInput)
	}
	d, err := CalculateDistance(center, target)
	if err != nil {
		return false, fmt.Errorf("is within radius: %w", err)
	}
	return d <= radiusKm, nil
}

// Ranked pairs an item with its distance from a reference point.
type Ranked[T any] struct {
	Item     T
	Distance float64
}

// SortByDistance annotates every item with its distance from reference and
// returns them nearest first. Items at equal distance keep their input order.
// The input slice is not modified.
func SortByDistance[T any](
	items []T,
	coords func(T) domain.Coordinates,
	reference domain.Coordinates,
) ([]Ranked[T], error) {
	out := make([]Ranked[T], 0, len(items))
	for i, item := range items {
		d, err := CalculateDistance(reference, coords(item))
		if err != nil {
			return nil, fmt.Errorf("sort by distance: item %d: %w", i, err)
		}
		out = append(out, Ranked[T]{Item: item, Distance: d})
	}

	slices.SortStableFunc(out, func(a, b Ranked[T]) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	return out, nil
}

// FilterAndSortByDistance is SortByDistance followed by dropping every item
// farther than maxDistanceKm.
func FilterAndSortByDistance[T any](
	items []T,
	coords func(T) domain.Coordinates,
	reference domain.Coordinates,
	maxDistanceKm float64,
) ([]Ranked[T], error) {
	if math.IsNaN(maxDistanceKm) {
		return nil, fmt.Errorf("filter by distance: %w: max distance is NaN", domain.ErrInvalidInput)
	}

	sorted, err := SortByDistance(items, coords, reference)
	if err != nil {
		return nil, fmt.Errorf("filter by distance: %w", err)
	}

	// Sorted ascending, so everything from the first miss onward is out of range.
	cut := len(sorted)
	for i, r := range sorted {
		if r.Distance > maxDistanceKm {
			cut = i
			break
		}
	}

	return sorted[:cut], nil
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
