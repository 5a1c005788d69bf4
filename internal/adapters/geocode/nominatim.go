package geocode

import (
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/platform/obs"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimConfig biases every search toward one country and language.
type NominatimConfig struct {
	BaseURL     string
	Country     string
	CountryCode string
	Language    string
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts uint
	RetryDelay  time.Duration
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimClient implements GeocodeProvider against the OpenStreetMap
// Nominatim search API. Outbound requests share the injected Gate.
type NominatimClient struct {
	session *http.Client
	cfg     NominatimConfig
	gate    *Gate
	logger  *slog.Logger
	metrics *obs.Metrics
}

func NewNominatimClient(
	cfg NominatimConfig,
	gate *Gate,
	logger *slog.Logger,
	metrics *obs.Metrics,
) (*NominatimClient, error) {
	if gate == nil {
		return nil, errors.New("nominatim client: rate gate is nil")
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, errors.New("nominatim client: user agent is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNominatimURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &NominatimClient{
		session: &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		gate:    gate,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Search resolves city with a single limit=1 query.
func (n *NominatimClient) Search(ctx context.Context, city string) (_ domain.CityEntry, err error) {
	defer obs.Time(ctx, "nominatim.Search")(&err)

	endpoint := n.cfg.BaseURL + "/search?" + n.searchQuery(city).Encode()

	resp, err := n.doWithRetry(ctx, func() (*http.Request, error) {
		return n.newRequest(ctx, endpoint)
	})
	if err != nil {
		n.metrics.GeocodeRequest("network_error")
		return domain.CityEntry{}, fmt.Errorf("search %q: %w: %w", city, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		n.metrics.GeocodeRequest("invalid_response")
		return domain.CityEntry{}, fmt.Errorf("search %q: %w: decode: %w", city, domain.ErrInvalidResponse, err)
	}

	if len(results) == 0 {
		n.metrics.GeocodeRequest("not_found")
		return domain.CityEntry{}, fmt.Errorf("search %q: %w: no geocode results", city, domain.ErrNotFound)
	}

	first := results[0]
	coords, err := parseCoordinates(first.Lat, first.Lon)
	if err != nil {
		n.metrics.GeocodeRequest("invalid_response")
		return domain.CityEntry{}, fmt.Errorf("search %q: %w", city, err)
	}

	n.metrics.GeocodeRequest("ok")
	return domain.CityEntry{
		Coordinates: coords,
		DisplayName: first.DisplayName,
	}, nil
}

func (n *NominatimClient) searchQuery(city string) url.Values {
	text := city
	if n.cfg.Country != "" {
		text = city + ", " + n.cfg.Country
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("format", "json")
	q.Set("limit", "1")
	if n.cfg.CountryCode != "" {
		q.Set("countrycodes", n.cfg.CountryCode)
	}
	q.Set("addressdetails", "1")
	if n.cfg.Language != "" {
		q.Set("accept-language", n.cfg.Language)
	}
	return q
}

// parseCoordinates converts Nominatim's string lat/lon into validated
// coordinates.
func parseCoordinates(latStr, lonStr string) (domain.Coordinates, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: latitude %q: %w", domain.ErrInvalidResponse, latStr, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: longitude %q: %w", domain.ErrInvalidResponse, lonStr, err)
	}

	coords, err := domain.NewCoordinates(lat, lon)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: %w", domain.ErrInvalidResponse, err)
	}
	return coords, nil
}
