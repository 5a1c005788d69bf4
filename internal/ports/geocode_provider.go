package ports

import (
	"artist-discovery-service/internal/domain"
	"context"
)

// Port: a single outbound lookup against a geocoding service.
// Implementations do not cache; CachedAt on the result is left zero.
type GeocodeProvider interface {
	Search(ctx context.Context, city string) (domain.CityEntry, error)
}
