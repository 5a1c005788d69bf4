package ports

import (
	"artist-discovery-service/internal/domain"
	"context"
)

// Contract for resolving free-text city names to coordinates.
type Geocoder interface {
	// Return coordinates for a single city, consulting any cache first.
	GetCityCoordinates(ctx context.Context, city string) (domain.Coordinates, error)
	// Resolve many cities; failed lookups map to nil instead of failing the batch.
	GetBatchCoordinates(ctx context.Context, cities []string) map[string]*domain.Coordinates
}
