package main

import (
	"artist-discovery-service/internal/adapters/cache"
	"artist-discovery-service/internal/adapters/geocode"
	"artist-discovery-service/internal/adapters/repositories"
	"artist-discovery-service/internal/api"
	"artist-discovery-service/internal/config"
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/platform/db"
	"artist-discovery-service/internal/platform/logging"
	"artist-discovery-service/internal/platform/obs"
	"artist-discovery-service/internal/ports"
	"artist-discovery-service/internal/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Env, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := obs.NewMetrics()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := repositories.InitSchema(ctx, p); err != nil {
			return err
		}
		pool = p
	}

	store, closeStore, err := openStore(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer closeStore()

	cityCache := cache.NewCityCache(store, cache.CityCacheOptions{
		Key:    cfg.Cache.Key,
		TTL:    cfg.Cache.TTL,
		Logger: logger,
	})
	if _, err := cityCache.Hydrate(ctx); err != nil {
		logger.Warn("city cache hydrate failed, starting empty", "error", err)
	}

	provider, err := newProvider(cfg.Geocoder, logger, metrics)
	if err != nil {
		return err
	}

	geocoder, err := geocode.NewCachingGeocoder(provider, cityCache, logger, metrics)
	if err != nil {
		return err
	}

	repo, err := newRepository(cfg, pool)
	if err != nil {
		return err
	}

	discovery, err := services.NewDiscovery(geocoder, logger, metrics)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Deps{
		Repo:        repo,
		Geocoder:    geocoder,
		Cache:       geocoder,
		Locations:   services.NewLocationService(cache.NewSessionLocationCache(cfg.Nearby.LocationTTL), domain.DefaultPositionOptions(), logger),
		Feeds:       services.NewFeedRegistry(discovery, cfg.Nearby.LocationTTL),
		Metrics:     metrics,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		RadiusKm:    cfg.Nearby.RadiusKm,
		Limit:       cfg.Nearby.Limit,
	})

	// Write timeout covers a cold batch: one gated geocode per distinct city.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "geocoder", cfg.Geocoder.Mode, "cache", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := cityCache.Persist(shutdownCtx); err != nil {
		logger.Warn("final city cache persist failed", "error", err)
	}

	return nil
}

func openStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (ports.KVStore, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendPostgres:
		if pool == nil {
			return nil, nil, errors.New("open store: postgres cache backend needs DATABASE_URL")
		}
		return cache.NewPostgresStore(pool), func() {}, nil
	default:
		s, err := cache.OpenBlobStore(ctx, cfg.Cache.BucketURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

func newProvider(cfg config.GeocoderConfig, logger *slog.Logger, metrics *obs.Metrics) (ports.GeocodeProvider, error) {
	if cfg.Mode == config.GeocoderModeStatic {
		return geocode.LoadStaticProvider(cfg.StaticPath)
	}

	gate := geocode.NewGate(cfg.MinInterval, metrics)
	return geocode.NewNominatimClient(geocode.NominatimConfig{
		BaseURL:     cfg.BaseURL,
		Country:     cfg.Country,
		CountryCode: cfg.CountryCode,
		Language:    cfg.Language,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
	}, gate, logger, metrics)
}

func newRepository(cfg config.Config, pool *pgxpool.Pool) (ports.CandidateRepository, error) {
	if pool != nil {
		return repositories.NewPostgresProfileRepository(pool), nil
	}

	seeds, err := repositories.LoadSeed(cfg.SeedPath)
	if err != nil {
		return nil, fmt.Errorf("new repository: %w", err)
	}
	return repositories.NewMemoryProfileRepository(seeds), nil
}
