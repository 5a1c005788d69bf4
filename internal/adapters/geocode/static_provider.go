package geocode

import (
	"artist-discovery-service/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
)

// StaticCity is one row of a fixed city table.
type StaticCity struct {
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StaticProvider answers lookups from a fixed table. It backs offline runs
// (GEOCODER_MODE=static) and tests.
type StaticProvider struct {
	m     map[string]domain.CityEntry
	calls atomic.Int64
}

func NewStaticProvider(cities []StaticCity) *StaticProvider {
	m := make(map[string]domain.CityEntry, len(cities))
	for _, c := range cities {
		m[NormalizeCity(c.City)] = domain.CityEntry{
			Coordinates: domain.Coordinates{Latitude: c.Latitude, Longitude: c.Longitude},
			DisplayName: c.City,
		}
	}
	return &StaticProvider{m: m}
}

// LoadStaticProvider reads a JSON array of StaticCity from path.
func LoadStaticProvider(path string) (*StaticProvider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load static cities: read %q: %w", path, err)
	}

	var cities []StaticCity
	if err := json.Unmarshal(b, &cities); err != nil {
		return nil, fmt.Errorf("load static cities: parse json: %w", err)
	}

	for i, c := range cities {
		if _, err := domain.NewCoordinates(c.Latitude, c.Longitude); err != nil {
			return nil, fmt.Errorf("load static cities: item %d (%q): %w", i+1, c.City, err)
		}
	}

	return NewStaticProvider(cities), nil
}

func (p *StaticProvider) Search(ctx context.Context, city string) (domain.CityEntry, error) {
	p.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return domain.CityEntry{}, fmt.Errorf("search %q: %w: %w", city, domain.ErrNetwork, err)
	}

	e, ok := p.m[NormalizeCity(city)]
	if !ok {
		return domain.CityEntry{}, fmt.Errorf("search %q: %w: no geocode results", city, domain.ErrNotFound)
	}
	return e, nil
}

// Calls returns how many lookups reached the provider.
func (p *StaticProvider) Calls() int64 {
	return p.calls.Load()
}
