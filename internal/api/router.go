package api

import (
	"artist-discovery-service/internal/api/handlers"
	"artist-discovery-service/internal/platform/obs"
	"artist-discovery-service/internal/ports"
	"artist-discovery-service/internal/services"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Repo        ports.CandidateRepository
	Geocoder    ports.Geocoder
	Cache       handlers.GeocodeCache
	Locations   *services.LocationService
	Feeds       *services.FeedRegistry
	Metrics     *obs.Metrics
	Logger      *slog.Logger
	CORSOrigins []string

	RadiusKm float64
	Limit    int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	health := &handlers.HealthHandler{Cache: d.Cache}
	nearby := &handlers.NearbyHandler{
		Repo:            d.Repo,
		Locations:       d.Locations,
		Feeds:           d.Feeds,
		DefaultRadiusKm: d.RadiusKm,
		DefaultLimit:    d.Limit,
		Logger:          logger,
	}
	geocode := &handlers.GeocodeHandler{
		Geocoder: d.Geocoder,
		Cache:    d.Cache,
		Logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", handlers.SessionHeader, requestIDHeader},
		ExposedHeaders: []string{handlers.SessionHeader, requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", health.Health)
	r.Get("/nearby", nearby.List)
	r.Get("/nearby.geojson", nearby.GeoJSON)
	r.Get("/distance", handlers.Distance)

	r.Get("/geocode", geocode.Get)
	r.Post("/geocode/batch", geocode.Batch)
	r.Delete("/geocode/cache", geocode.ClearCache)

	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	return r
}
