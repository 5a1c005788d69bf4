package ports

import (
	"artist-discovery-service/internal/domain"
	"context"
)

// Source of the viewer's current position (device geolocation, request
// parameters, ...). Failures should be *domain.LocationError values.
type PositionSource interface {
	CurrentPosition(ctx context.Context, opts domain.PositionOptions) (domain.UserLocation, error)
}
