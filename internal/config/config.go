// Package config loads service settings from the environment (and an
// optional .env file).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	CacheBackendBlob     = "blob"
	CacheBackendPostgres = "postgres"

	GeocoderModeNominatim = "nominatim"
	GeocoderModeStatic    = "static"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	SeedPath    string
	CORSOrigins []string

	Cache    CacheConfig
	Geocoder GeocoderConfig
	Nearby   NearbyConfig
}

type CacheConfig struct {
	Backend   string
	BucketURL string
	Key       string
	TTL       time.Duration
}

type GeocoderConfig struct {
	Mode        string
	BaseURL     string
	Country     string
	CountryCode string
	Language    string
	UserAgent   string
	MinInterval time.Duration
	Timeout     time.Duration
	StaticPath  string
}

type NearbyConfig struct {
	RadiusKm    float64
	Limit       int
	LocationTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SEED_PATH", "data/seeds/artists.json")
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("CACHE_BACKEND", CacheBackendBlob)
	v.SetDefault("CACHE_BUCKET_URL", "file:///tmp/artist-discovery")
	v.SetDefault("CACHE_KEY", "city-coordinates-cache")
	v.SetDefault("CACHE_TTL", 7*24*time.Hour)

	v.SetDefault("GEOCODER_MODE", GeocoderModeNominatim)
	v.SetDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_COUNTRY", "Portugal")
	v.SetDefault("GEOCODER_COUNTRY_CODE", "pt")
	v.SetDefault("GEOCODER_LANGUAGE", "pt")
	v.SetDefault("GEOCODER_USER_AGENT", "artist-discovery-service/1.0")
	v.SetDefault("GEOCODER_MIN_INTERVAL", 1100*time.Millisecond)
	v.SetDefault("GEOCODER_TIMEOUT", 10*time.Second)
	v.SetDefault("GEOCODER_STATIC_PATH", "data/seeds/cities.json")

	v.SetDefault("NEARBY_RADIUS_KM", 250.0)
	v.SetDefault("NEARBY_LIMIT", 12)
	v.SetDefault("LOCATION_TTL", time.Hour)
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:        v.GetString("PORT"),
		Env:         v.GetString("APP_ENV"),
		DatabaseURL: strings.TrimSpace(v.GetString("DATABASE_URL")),
		SeedPath:    v.GetString("SEED_PATH"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		Cache: CacheConfig{
			Backend:   strings.ToLower(v.GetString("CACHE_BACKEND")),
			BucketURL: v.GetString("CACHE_BUCKET_URL"),
			Key:       v.GetString("CACHE_KEY"),
			TTL:       v.GetDuration("CACHE_TTL"),
		},
		Geocoder: GeocoderConfig{
			Mode:        strings.ToLower(v.GetString("GEOCODER_MODE")),
			BaseURL:     v.GetString("GEOCODER_BASE_URL"),
			Country:     v.GetString("GEOCODER_COUNTRY"),
			CountryCode: v.GetString("GEOCODER_COUNTRY_CODE"),
			Language:    v.GetString("GEOCODER_LANGUAGE"),
			UserAgent:   v.GetString("GEOCODER_USER_AGENT"),
			MinInterval: v.GetDuration("GEOCODER_MIN_INTERVAL"),
			Timeout:     v.GetDuration("GEOCODER_TIMEOUT"),
			StaticPath:  v.GetString("GEOCODER_STATIC_PATH"),
		},
		Nearby: NearbyConfig{
			RadiusKm:    v.GetFloat64("NEARBY_RADIUS_KM"),
			Limit:       v.GetInt("NEARBY_LIMIT"),
			LocationTTL: v.GetDuration("LOCATION_TTL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendBlob:
		if c.Cache.BucketURL == "" {
			return errors.New("config: CACHE_BUCKET_URL is required for the blob cache backend")
		}
	case CacheBackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres cache backend")
		}
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	switch c.Geocoder.Mode {
	case GeocoderModeNominatim:
		if strings.TrimSpace(c.Geocoder.UserAgent) == "" {
			return errors.New("config: GEOCODER_USER_AGENT is required")
		}
	case GeocoderModeStatic:
		if c.Geocoder.StaticPath == "" {
			return errors.New("config: GEOCODER_STATIC_PATH is required in static mode")
		}
	default:
		return fmt.Errorf("config: unknown GEOCODER_MODE %q", c.Geocoder.Mode)
	}

	if c.Cache.TTL <= 0 {
		return errors.New("config: CACHE_TTL must be positive")
	}
	if c.Nearby.RadiusKm <= 0 {
		return errors.New("config: NEARBY_RADIUS_KM must be positive")
	}
	if c.Nearby.Limit < 0 {
		return errors.New("config: NEARBY_LIMIT must not be negative")
	}

	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
