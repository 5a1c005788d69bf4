package services

import (
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/geo"
	"artist-discovery-service/internal/platform/obs"
	"artist-discovery-service/internal/ports"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

const (
	DefaultRadiusKm = 250.0
	DefaultLimit    = 12
)

// DiscoveryRequest is one nearby ranking pass.
type DiscoveryRequest struct {
	// Location is the viewer's position. Nil means none is known.
	Location *domain.UserLocation
	// Candidates are ranked in place of a fresh repository read when set.
	Candidates []domain.Candidate
	// SearchTerms suppresses nearby ranking when non-blank.
	SearchTerms string
	RadiusKm    float64
	// Limit caps the result. Zero or less means no cap.
	Limit int
}

// Discovery turns a candidate list and a viewer location into a
// distance-ranked, radius-bounded nearby list.
type Discovery struct {
	geocoder ports.Geocoder
	logger   *slog.Logger
	metrics  *obs.Metrics
}

func NewDiscovery(geocoder ports.Geocoder, logger *slog.Logger, metrics *obs.Metrics) (*Discovery, error) {
	if geocoder == nil {
		return nil, errors.New("discovery: geocoder is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{geocoder: geocoder, logger: logger, metrics: metrics}, nil
}

// Discover runs the nearby pipeline. It never fails because a single city
// could not be geocoded; such candidates are dropped. Errors are limited to
// an invalid request (bad radius or viewer coordinates).
func (d *Discovery) Discover(ctx context.Context, req DiscoveryRequest) (_ []domain.RankedCandidate, err error) {
	defer obs.Time(ctx, "discovery.Discover")(&err)

	if math.IsNaN(req.RadiusKm) || req.RadiusKm < 0 {
		return nil, fmt.Errorf("discover: %w: radius must be a non-negative number", domain.ErrInvalidInput)
	}

	if req.Location == nil || len(req.Candidates) == 0 || strings.TrimSpace(req.SearchTerms) != "" {
		return []domain.RankedCandidate{}, nil
	}

	if err := req.Location.Coordinates.Validate(); err != nil {
		return nil, fmt.Errorf("discover: viewer location: %w", err)
	}

	cities := distinctLocations(req.Candidates)
	if len(cities) == 0 {
		return []domain.RankedCandidate{}, nil
	}

	resolved := d.geocoder.GetBatchCoordinates(ctx, cities)

	located := make([]domain.RankedCandidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		coords := resolved[c.Location]
		if coords == nil {
			continue
		}
		located = append(located, domain.RankedCandidate{Candidate: c, Coordinates: *coords})
	}

	ranked, err := geo.FilterAndSortByDistance(
		located,
		func(c domain.RankedCandidate) domain.Coordinates { return c.Coordinates },
		req.Location.Coordinates,
		req.RadiusKm,
	)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	if req.Limit > 0 && len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	out := make([]domain.RankedCandidate, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
		out[i].DistanceKm = r.Distance
	}

	d.logger.DebugContext(ctx, "nearby ranked",
		"candidates", len(req.Candidates),
		"cities", len(cities),
		"located", len(located),
		"results", len(out),
	)
	d.metrics.NearbyResults(len(out))

	return out, nil
}

// distinctLocations returns the non-blank location strings in first-seen
// order, each once.
func distinctLocations(candidates []domain.Candidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Location) == "" {
			continue
		}
		if _, ok := seen[c.Location]; ok {
			continue
		}
		seen[c.Location] = struct{}{}
		out = append(out, c.Location)
	}
	return out
}
