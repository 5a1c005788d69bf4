package geocode

import (
	"artist-discovery-service/internal/adapters/cache"
	"artist-discovery-service/internal/domain"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

var testCities = []StaticCity{
	{City: "Lisboa", Latitude: 38.7223, Longitude: -9.1393},
	{City: "Porto", Latitude: 41.1579, Longitude: -8.6291},
	{City: "Faro", Latitude: 37.0194, Longitude: -7.9304},
}

func newTestGeocoder(t *testing.T) (*CachingGeocoder, *StaticProvider, *cache.BlobStore) {
	t.Helper()
	store := cache.NewBlobStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = store.Close() })

	provider := NewStaticProvider(testCities)
	g, err := NewCachingGeocoder(provider, cache.NewCityCache(store, cache.CityCacheOptions{}), nil, nil)
	require.NoError(t, err)
	return g, provider, store
}

func TestGetCityCoordinatesCachesNormalizedName(t *testing.T) {
	g, provider, _ := newTestGeocoder(t)
	ctx := context.Background()

	first, err := g.GetCityCoordinates(ctx, "Lisboa")
	require.NoError(t, err)
	require.Equal(t, int64(1), provider.Calls())

	second, err := g.GetCityCoordinates(ctx, "  LISBOA ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), provider.Calls(), "cache hit must not reach the provider")
}

func TestGetCityCoordinatesWritesThrough(t *testing.T) {
	g, _, store := newTestGeocoder(t)
	ctx := context.Background()

	_, err := g.GetCityCoordinates(ctx, "Porto")
	require.NoError(t, err)

	raw, err := store.Load(ctx, cache.DefaultCityCacheKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"porto"`)
}

func TestGetCityCoordinatesErrors(t *testing.T) {
	g, _, _ := newTestGeocoder(t)
	ctx := context.Background()

	_, err := g.GetCityCoordinates(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = g.GetCityCoordinates(ctx, "Atlantis")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var ge *domain.GeocodeError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "Atlantis", ge.City)
}

func TestGetBatchCoordinatesPartialFailure(t *testing.T) {
	g, _, _ := newTestGeocoder(t)

	out := g.GetBatchCoordinates(context.Background(), []string{"Lisboa", "Atlantis", "Faro"})

	require.Len(t, out, 3)
	nils := 0
	for _, c := range out {
		if c == nil {
			nils++
		}
	}
	assert.Equal(t, 1, nils)
	assert.Nil(t, out["Atlantis"])
	require.NotNil(t, out["Lisboa"])
	assert.InDelta(t, 38.7223, out["Lisboa"].Latitude, 1e-9)
	require.NotNil(t, out["Faro"])
}

func TestGetBatchCoordinatesDuplicateNames(t *testing.T) {
	g, provider, _ := newTestGeocoder(t)

	out := g.GetBatchCoordinates(context.Background(), []string{"Porto", "Porto", "porto"})

	assert.Len(t, out, 2)
	assert.Equal(t, int64(1), provider.Calls())
}

func TestGetCityCoordinatesConcurrentSameCity(t *testing.T) {
	g, provider, _ := newTestGeocoder(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.GetCityCoordinates(ctx, "Faro")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), provider.Calls())
}

func TestClearCaches(t *testing.T) {
	g, provider, _ := newTestGeocoder(t)
	ctx := context.Background()

	_, err := g.GetCityCoordinates(ctx, "Lisboa")
	require.NoError(t, err)

	assert.Zero(t, g.ClearExpiredCache(ctx))
	_, err = g.GetCityCoordinates(ctx, "Lisboa")
	require.NoError(t, err)
	assert.Equal(t, int64(1), provider.Calls())

	require.NoError(t, g.ClearAllCache(ctx))
	_, err = g.GetCityCoordinates(ctx, "Lisboa")
	require.NoError(t, err)
	assert.Equal(t, int64(2), provider.Calls())
}

// blockingProvider holds every lookup until release is closed or the
// lookup's context ends.
type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int64
}

func (p *blockingProvider) Search(ctx context.Context, city string) (domain.CityEntry, error) {
	if p.calls.Add(1) == 1 {
		close(p.entered)
	}
	select {
	case <-p.release:
		return domain.CityEntry{Coordinates: domain.Coordinates{Latitude: 38.7223, Longitude: -9.1393}}, nil
	case <-ctx.Done():
		return domain.CityEntry{}, ctx.Err()
	}
}

func TestSharedLookupSurvivesStarterCancel(t *testing.T) {
	store := cache.NewBlobStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = store.Close() })

	provider := &blockingProvider{entered: make(chan struct{}), release: make(chan struct{})}
	g, err := NewCachingGeocoder(provider, cache.NewCityCache(store, cache.CityCacheOptions{}), nil, nil)
	require.NoError(t, err)

	starterCtx, cancelStarter := context.WithCancel(context.Background())
	starterErr := make(chan error, 1)
	go func() {
		_, err := g.GetCityCoordinates(starterCtx, "Lisboa")
		starterErr <- err
	}()

	select {
	case <-provider.entered:
	case <-time.After(time.Second):
		t.Fatal("lookup never reached the provider")
	}

	type result struct {
		coords domain.Coordinates
		err    error
	}
	joined := make(chan result, 1)
	go func() {
		c, err := g.GetCityCoordinates(context.Background(), "lisboa")
		joined <- result{c, err}
	}()

	// Let the second caller join the in-flight lookup before the starter leaves.
	time.Sleep(50 * time.Millisecond)
	cancelStarter()

	select {
	case err := <-starterErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(provider.release)

	select {
	case r := <-joined:
		require.NoError(t, r.err)
		assert.InDelta(t, 38.7223, r.coords.Latitude, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("joined caller did not return")
	}
	assert.Equal(t, int64(1), provider.calls.Load())

	_, ok := g.cache.Get("lisboa")
	assert.True(t, ok, "shared lookup result should be cached")
}
