package services

import (
	"artist-discovery-service/internal/adapters/cache"
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/ports"
	"context"
	"errors"
	"log/slog"
	"time"
)

// LocationService resolves a viewer's position: a fresh session entry wins,
// otherwise one acquisition is made through a PositionSource.
//
// Every failure is returned as a *domain.LocationError.
type LocationService struct {
	sessions *cache.SessionLocationCache
	opts     domain.PositionOptions
	logger   *slog.Logger
	now      func() time.Time
}

func NewLocationService(sessions *cache.SessionLocationCache, opts domain.PositionOptions, logger *slog.Logger) *LocationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationService{sessions: sessions, opts: opts, logger: logger, now: time.Now}
}

// Resolve returns the session's location. src may be nil when the caller
// has nothing to offer; a fresh cached entry is still used in that case.
func (s *LocationService) Resolve(ctx context.Context, sessionID string, src ports.PositionSource) (domain.UserLocation, error) {
	if src == nil {
		if loc, ok := s.sessions.Get(sessionID); ok {
			return loc, nil
		}
		return domain.UserLocation{}, domain.NewLocationError(domain.LocationUnsupported)
	}

	acquireCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	loc, err := src.CurrentPosition(acquireCtx, s.opts)
	if err != nil {
		lerr := toLocationError(err)
		s.logger.InfoContext(ctx, "location acquisition failed", "session", sessionID, "code", lerr.Code, "error", err)
		return domain.UserLocation{}, lerr
	}

	if err := loc.Coordinates.Validate(); err != nil {
		s.logger.WarnContext(ctx, "position source returned invalid coordinates", "session", sessionID, "error", err)
		return domain.UserLocation{}, domain.NewLocationError(domain.LocationUnavailable)
	}

	now := s.now()
	if loc.AcquiredAt.IsZero() {
		loc.AcquiredAt = now
	}
	if s.opts.MaximumAge > 0 && now.Sub(loc.AcquiredAt) > s.opts.MaximumAge {
		return domain.UserLocation{}, domain.NewLocationError(domain.LocationUnavailable)
	}

	s.sessions.Set(sessionID, loc)
	return loc, nil
}

// Forget drops the session's cached location.
func (s *LocationService) Forget(sessionID string) {
	s.sessions.Delete(sessionID)
}

func toLocationError(err error) *domain.LocationError {
	var lerr *domain.LocationError
	switch {
	case errors.As(err, &lerr):
		return lerr
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewLocationError(domain.LocationTimeout)
	default:
		return domain.NewLocationError(domain.LocationUnavailable)
	}
}
