package geocode

import (
	"artist-discovery-service/internal/adapters/cache"
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/platform/obs"
	"artist-discovery-service/internal/ports"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachingGeocoder implements Geocoder on top of a GeocodeProvider.
//
// It coordinates:
//   - City name normalization
//   - Durable city coordinate caching (write-through)
//   - Suppression of duplicate in-flight lookups for one city
//
// Rate limiting belongs to the provider's Gate. The geocoder is safe for
// concurrent use.
type CachingGeocoder struct {
	provider      ports.GeocodeProvider
	cache         *cache.CityCache
	group         singleflight.Group
	flightTimeout time.Duration
	logger        *slog.Logger
	metrics       *obs.Metrics
}

// DefaultFlightTimeout bounds one shared provider lookup, retries and rate
// gate waits included.
const DefaultFlightTimeout = time.Minute

func NewCachingGeocoder(
	provider ports.GeocodeProvider,
	cityCache *cache.CityCache,
	logger *slog.Logger,
	metrics *obs.Metrics,
) (*CachingGeocoder, error) {
	if provider == nil {
		return nil, errors.New("caching geocoder: provider is nil")
	}
	if cityCache == nil {
		return nil, errors.New("caching geocoder: city cache is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CachingGeocoder{
		provider:      provider,
		cache:         cityCache,
		flightTimeout: DefaultFlightTimeout,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// collapse trims and collapses internal whitespace.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeCity returns the cache key for a city name.
func NormalizeCity(s string) string {
	return strings.ToLower(collapse(s))
}

// GetCityCoordinates returns coordinates for city. A live cache entry is
// returned without any network activity; otherwise one provider lookup is
// made and its result cached before returning.
func (g *CachingGeocoder) GetCityCoordinates(ctx context.Context, city string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocoder.GetCityCoordinates")(&err)

	name := collapse(city)
	if name == "" {
		return domain.Coordinates{}, &domain.GeocodeError{
			City: city,
			Err:  fmt.Errorf("%w: city name is empty", domain.ErrInvalidInput),
		}
	}
	key := strings.ToLower(name)

	if entry, ok := g.cache.Get(key); ok {
		g.metrics.CacheLookup(true)
		return entry.Coordinates, nil
	}
	g.metrics.CacheLookup(false)

	ch := g.group.DoChan(key, func() (any, error) {
		// A flight that finished just before this one may have filled the cache.
		if entry, ok := g.cache.Get(key); ok {
			return entry, nil
		}

		// Detached from the starting caller; every joined caller waits on it.
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.flightTimeout)
		defer cancel()

		entry, err := g.provider.Search(flightCtx, name)
		if err != nil {
			return nil, err
		}

		entry.CachedAt = time.Time{}
		g.cache.Put(flightCtx, key, entry)
		return entry, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return domain.Coordinates{}, &domain.GeocodeError{City: name, Err: ctx.Err()}
	case res = <-ch:
	}
	if res.Err != nil {
		return domain.Coordinates{}, &domain.GeocodeError{City: name, Err: res.Err}
	}
	if res.Shared {
		g.logger.Debug("geocode lookup shared with concurrent caller", "city", key)
	}

	return res.Val.(domain.CityEntry).Coordinates, nil
}

// GetBatchCoordinates resolves cities one after another in input order.
// Every input name appears in the result; a failed lookup maps to nil and
// never aborts the batch.
func (g *CachingGeocoder) GetBatchCoordinates(ctx context.Context, cities []string) map[string]*domain.Coordinates {
	out := make(map[string]*domain.Coordinates, len(cities))

	for _, city := range cities {
		if _, done := out[city]; done {
			continue
		}

		coords, err := g.GetCityCoordinates(ctx, city)
		if err != nil {
			g.logger.WarnContext(ctx, "geocode failed", "city", city, "error", err)
			out[city] = nil
			continue
		}

		c := coords
		out[city] = &c
	}

	return out
}

// ClearExpiredCache drops cached cities past their TTL and returns the
// number removed.
func (g *CachingGeocoder) ClearExpiredCache(ctx context.Context) int {
	removed := g.cache.SweepExpired(ctx)
	g.logger.InfoContext(ctx, "expired city cache entries cleared", "removed", removed)
	return removed
}

// ClearAllCache empties the memory and durable city cache.
func (g *CachingGeocoder) ClearAllCache(ctx context.Context) error {
	if err := g.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear geocode cache: %w", err)
	}
	g.logger.InfoContext(ctx, "city cache cleared")
	return nil
}

// CacheSize reports the number of cached cities.
func (g *CachingGeocoder) CacheSize() int {
	return g.cache.Len()
}
