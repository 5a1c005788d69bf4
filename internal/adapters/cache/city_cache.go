package cache

import (
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/ports"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const (
	DefaultCityCacheKey = "city-coordinates-cache"
	DefaultCityTTL      = 7 * 24 * time.Hour
	defaultMaxCities    = 50_000
)

// cityRecord is the persisted shape of one cache entry.
type cityRecord struct {
	Coordinates domain.Coordinates `json:"coordinates"`
	DisplayName string             `json:"displayName,omitempty"`
	Timestamp   int64              `json:"timestamp"`
}

type CityCacheOptions struct {
	Key        string
	TTL        time.Duration
	MaxEntries int
	Now        func() time.Time
	Logger     *slog.Logger
}

// CityCache maps normalized city names to geocoded entries.
//
// Entries live in an in-memory otter cache and the whole map is written to
// a KVStore as a single JSON document after every change. Keys are expected
// to be normalized by the caller. Persistence is advisory: write failures
// are logged and never surfaced to lookups.
type CityCache struct {
	store   ports.KVStore
	key     string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	entries *otter.Cache[string, domain.CityEntry]

	// persistMu serializes snapshot+write so two writers cannot interleave.
	persistMu sync.Mutex
}

func NewCityCache(store ports.KVStore, opts CityCacheOptions) *CityCache {
	if opts.Key == "" {
		opts.Key = DefaultCityCacheKey
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultCityTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxCities
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &CityCache{
		store:  store,
		key:    opts.Key,
		ttl:    opts.TTL,
		now:    opts.Now,
		logger: opts.Logger,
		entries: otter.Must(&otter.Options[string, domain.CityEntry]{
			MaximumSize: opts.MaxEntries,
		}),
	}
}

// Hydrate loads persisted entries, skipping any older than the TTL, and
// returns how many were loaded. A missing document is an empty cache.
func (c *CityCache) Hydrate(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}

	data, err := c.store.Load(ctx, c.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("hydrate city cache: %w", err)
	}

	var records map[string]cityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("hydrate city cache: decode %q: %w", c.key, err)
	}

	now := c.now()
	loaded := 0
	for k, r := range records {
		entry := domain.CityEntry{
			Coordinates: r.Coordinates,
			DisplayName: r.DisplayName,
			CachedAt:    time.UnixMilli(r.Timestamp),
		}
		if entry.Expired(now, c.ttl) || entry.Coordinates.Validate() != nil {
			continue
		}
		c.entries.Set(k, entry)
		loaded++
	}

	c.logger.Info("city cache hydrated",
		"key", c.key,
		"total_entries", len(records),
		"loaded_entries", loaded,
		"dropped_entries", len(records)-loaded)

	return loaded, nil
}

// Get returns a live entry for key. Expired entries are evicted on access.
func (c *CityCache) Get(key string) (domain.CityEntry, bool) {
	entry, ok := c.entries.GetIfPresent(key)
	if !ok {
		return domain.CityEntry{}, false
	}

	if entry.Expired(c.now(), c.ttl) {
		c.entries.Invalidate(key)
		return domain.CityEntry{}, false
	}

	return entry, true
}

// Put stores entry under key and writes the cache through to the store.
// A zero CachedAt is stamped with the current time.
func (c *CityCache) Put(ctx context.Context, key string, entry domain.CityEntry) {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = c.now()
	}
	c.entries.Set(key, entry)

	if err := c.Persist(ctx); err != nil {
		c.logger.Warn("city cache write failed", "key", key, "error", err)
	}
}

// SweepExpired drops every entry past the TTL, persists the remainder and
// returns how many entries were removed.
func (c *CityCache) SweepExpired(ctx context.Context) int {
	now := c.now()

	expired := make([]string, 0)
	for k, e := range c.entries.All() {
		if e.Expired(now, c.ttl) {
			expired = append(expired, k)
		}
	}
	for _, k := range expired {
		c.entries.Invalidate(k)
	}

	if err := c.Persist(ctx); err != nil {
		c.logger.Warn("city cache write failed after sweep", "error", err)
	}

	return len(expired)
}

// Clear empties memory and removes the persisted document.
func (c *CityCache) Clear(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.entries.InvalidateAll()

	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, c.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("clear city cache: %w", err)
	}

	return nil
}

// Persist writes a snapshot of all live entries to the store.
func (c *CityCache) Persist(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	now := c.now()
	records := make(map[string]cityRecord)
	for k, e := range c.entries.All() {
		if e.Expired(now, c.ttl) {
			continue
		}
		records[k] = cityRecord{
			Coordinates: e.Coordinates,
			DisplayName: e.DisplayName,
			Timestamp:   e.CachedAt.UnixMilli(),
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("persist city cache: encode: %w", err)
	}

	if err := c.store.Save(ctx, c.key, data); err != nil {
		return fmt.Errorf("persist city cache: %w", err)
	}

	return nil
}

// Len returns the approximate number of entries held in memory.
func (c *CityCache) Len() int {
	return c.entries.EstimatedSize()
}
