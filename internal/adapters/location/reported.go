// Package location holds PositionSource implementations.
package location

import (
	"artist-discovery-service/internal/domain"
	"context"
	"time"
)

// Reported is a position the client acquired itself and sent with the
// request, or the geolocation failure code it got instead.
type Reported struct {
	Coordinates *domain.Coordinates
	AcquiredAt  time.Time
	Failure     *domain.LocationErrorCode
}

// FromFix wraps a successful client fix.
func FromFix(c domain.Coordinates, acquiredAt time.Time) *Reported {
	return &Reported{Coordinates: &c, AcquiredAt: acquiredAt}
}

// FromFailure wraps a client-side geolocation failure code.
func FromFailure(code domain.LocationErrorCode) *Reported {
	return &Reported{Failure: &code}
}

func (r *Reported) CurrentPosition(ctx context.Context, _ domain.PositionOptions) (domain.UserLocation, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserLocation{}, err
	}
	if r.Failure != nil {
		return domain.UserLocation{}, domain.NewLocationError(*r.Failure)
	}
	if r.Coordinates == nil {
		return domain.UserLocation{}, domain.NewLocationError(domain.LocationUnavailable)
	}
	return domain.UserLocation{Coordinates: *r.Coordinates, AcquiredAt: r.AcquiredAt}, nil
}
