package cache

import (
	"artist-discovery-service/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// failingStore rejects every write.
type failingStore struct{ saves int }

func (f *failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, domain.ErrNotFound
}

func (f *failingStore) Save(context.Context, string, []byte) error {
	f.saves++
	return errors.New("quota exceeded")
}

func (f *failingStore) Delete(context.Context, string) error { return nil }

func newMemStore(t *testing.T) *BlobStore {
	t.Helper()
	s := NewBlobStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var lisbon = domain.CityEntry{
	Coordinates: domain.Coordinates{Latitude: 38.7223, Longitude: -9.1393},
	DisplayName: "Lisboa, Portugal",
}

func TestCityCachePutPersistsAndHydrates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}

	c := NewCityCache(store, CityCacheOptions{Now: clock.Now})
	c.Put(ctx, "lisboa", lisbon)

	raw, err := store.Load(ctx, DefaultCityCacheKey)
	require.NoError(t, err)

	var records map[string]cityRecord
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Contains(t, records, "lisboa")
	assert.Equal(t, lisbon.Coordinates, records["lisboa"].Coordinates)
	assert.Equal(t, clock.Now().UnixMilli(), records["lisboa"].Timestamp)

	restored := NewCityCache(store, CityCacheOptions{Now: clock.Now})
	n, err := restored.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok := restored.Get("lisboa")
	require.True(t, ok)
	assert.Equal(t, lisbon.Coordinates, got.Coordinates)
	assert.Equal(t, "Lisboa, Portugal", got.DisplayName)
}

func TestCityCacheHydrateDropsExpired(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	doc := map[string]cityRecord{
		"porto": {
			Coordinates: domain.Coordinates{Latitude: 41.1579, Longitude: -8.6291},
			Timestamp:   now.Add(-8 * 24 * time.Hour).UnixMilli(),
		},
		"braga": {
			Coordinates: domain.Coordinates{Latitude: 41.5454, Longitude: -8.4265},
			Timestamp:   now.Add(-2 * 24 * time.Hour).UnixMilli(),
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, DefaultCityCacheKey, raw))

	c := NewCityCache(store, CityCacheOptions{Now: func() time.Time { return now }})
	n, err := c.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := c.Get("porto")
	assert.False(t, ok)
	_, ok = c.Get("braga")
	assert.True(t, ok)
}

func TestCityCacheHydrateMissingDocument(t *testing.T) {
	c := NewCityCache(newMemStore(t), CityCacheOptions{})
	n, err := c.Hydrate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCityCacheHydrateCorruptDocument(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)
	require.NoError(t, store.Save(ctx, DefaultCityCacheKey, []byte("{not json")))

	_, err := NewCityCache(store, CityCacheOptions{}).Hydrate(ctx)
	require.Error(t, err)
}

func TestCityCacheGetEvictsExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCityCache(nil, CityCacheOptions{TTL: time.Hour, Now: clock.Now})

	c.Put(context.Background(), "lisboa", lisbon)
	_, ok := c.Get("lisboa")
	require.True(t, ok)

	clock.Advance(61 * time.Minute)
	_, ok = c.Get("lisboa")
	assert.False(t, ok)
}

func TestCityCachePersistFailureIsSwallowed(t *testing.T) {
	store := &failingStore{}
	c := NewCityCache(store, CityCacheOptions{})

	c.Put(context.Background(), "lisboa", lisbon)

	got, ok := c.Get("lisboa")
	require.True(t, ok)
	assert.Equal(t, lisbon.Coordinates, got.Coordinates)
	assert.Equal(t, 1, store.saves)
}

func TestCityCacheSweepExpired(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCityCache(store, CityCacheOptions{TTL: 24 * time.Hour, Now: clock.Now})

	c.Put(ctx, "lisboa", lisbon)
	clock.Advance(20 * time.Hour)
	c.Put(ctx, "porto", domain.CityEntry{Coordinates: domain.Coordinates{Latitude: 41.1579, Longitude: -8.6291}})
	clock.Advance(5 * time.Hour)

	removed := c.SweepExpired(ctx)
	assert.Equal(t, 1, removed)

	raw, err := store.Load(ctx, DefaultCityCacheKey)
	require.NoError(t, err)
	var records map[string]cityRecord
	require.NoError(t, json.Unmarshal(raw, &records))
	assert.NotContains(t, records, "lisboa")
	assert.Contains(t, records, "porto")
}

func TestCityCacheClear(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t)
	c := NewCityCache(store, CityCacheOptions{})

	c.Put(ctx, "lisboa", lisbon)
	require.NoError(t, c.Clear(ctx))

	_, ok := c.Get("lisboa")
	assert.False(t, ok)

	_, err := store.Load(ctx, DefaultCityCacheKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
