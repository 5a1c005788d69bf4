package main

import (
	"artist-discovery-service/internal/adapters/repositories"
	"artist-discovery-service/internal/config"
	"artist-discovery-service/internal/platform/db"
	"artist-discovery-service/internal/platform/logging"
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	logger := logging.New(config.Get("APP_ENV", "development"), os.Stdout)
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, databaseURL)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/artists.json")
	if err := initAndSeed(ctx, logger, pool, seedPath); err != nil {
		logger.Error("dbtool failed", "error", err)
		pool.Close()
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, logger *slog.Logger, pool *pgxpool.Pool, seedPath string) error {
	logger.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, pool); err != nil {
		return err
	}
	logger.Info("schema ready")

	logger.Info("seeding profiles", "path", seedPath)
	n, err := repositories.SeedFromJSON(ctx, pool, seedPath)
	if err != nil {
		return err
	}
	logger.Info("seeding complete", "profiles", n)

	return nil
}
