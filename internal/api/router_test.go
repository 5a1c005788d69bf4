package api

import (
	"artist-discovery-service/internal/adapters/cache"
	"artist-discovery-service/internal/adapters/geocode"
	"artist-discovery-service/internal/adapters/repositories"
	"artist-discovery-service/internal/api/handlers"
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/platform/obs"
	"artist-discovery-service/internal/services"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func kmNorth(d float64) float64 { return d / 111.195 }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := cache.NewBlobStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = store.Close() })

	provider := geocode.NewStaticProvider([]geocode.StaticCity{
		{City: "Ten", Latitude: kmNorth(10)},
		{City: "Fifty", Latitude: kmNorth(50)},
		{City: "ThreeHundred", Latitude: kmNorth(300)},
	})
	geocoder, err := geocode.NewCachingGeocoder(provider, cache.NewCityCache(store, cache.CityCacheOptions{}), nil, nil)
	require.NoError(t, err)

	discovery, err := services.NewDiscovery(geocoder, nil, nil)
	require.NoError(t, err)

	repo := repositories.NewMemoryProfileRepository([]repositories.ProfileSeed{
		{ID: "a", DisplayName: "Far Ink", Location: "ThreeHundred", Role: repositories.RoleArtist},
		{ID: "b", DisplayName: "Mid Ink", Location: "Fifty", Role: repositories.RoleArtist},
		{ID: "c", DisplayName: "Near Ink", Location: "Ten", Role: repositories.RoleArtist},
		{ID: "d", DisplayName: "No City", Role: repositories.RoleArtist},
	})

	srv := httptest.NewServer(NewRouter(Deps{
		Repo:      repo,
		Geocoder:  geocoder,
		Cache:     geocoder,
		Locations: services.NewLocationService(cache.NewSessionLocationCache(time.Hour), domain.DefaultPositionOptions(), nil),
		Feeds:     services.NewFeedRegistry(discovery, time.Hour),
		Metrics:   obs.NewMetrics(),
		RadiusKm:  250,
		Limit:     12,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, body string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	if strings.Contains(res.Header.Get("Content-Type"), "json") {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	}
	return res, out
}

func artistNames(t *testing.T, body map[string]any) []string {
	t.Helper()
	list, ok := body["artists"].([]any)
	require.True(t, ok, "artists must be a list")

	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.(map[string]any)["display_name"].(string))
	}
	return names
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	res, body := doRequest(t, http.MethodGet, srv.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	res, _ = doRequest(t, http.MethodPost, srv.URL+"/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestNearbyRanksArtists(t *testing.T) {
	srv := newTestServer(t)

	res, body := doRequest(t, http.MethodGet, srv.URL+"/nearby?lat=0&lng=0", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, []string{"Near Ink", "Mid Ink"}, artistNames(t, body))
	assert.NotEmpty(t, res.Header.Get(handlers.SessionHeader))
	assert.Nil(t, body["location_error"])

	first := body["artists"].([]any)[0].(map[string]any)
	assert.Equal(t, "10km", first["distance_label"])
	assert.Equal(t, "close", first["distance_category"])
}

func TestNearbyReusesSessionLocation(t *testing.T) {
	srv := newTestServer(t)

	res, _ := doRequest(t, http.MethodGet, srv.URL+"/nearby?lat=0&lng=0&radius_km=20", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	session := res.Header.Get(handlers.SessionHeader)

	res, body := doRequest(t, http.MethodGet, srv.URL+"/nearby?radius_km=20", "", http.Header{
		handlers.SessionHeader: []string{session},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, session, res.Header.Get(handlers.SessionHeader))
	assert.Equal(t, []string{"Near Ink"}, artistNames(t, body))
}

func TestNearbyLocationErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		url  string
		code float64
	}{
		{name: "nothing known", url: "/nearby", code: 0},
		{name: "permission denied", url: "/nearby?geo_error=1", code: 1},
		{name: "timeout", url: "/nearby?geo_error=3", code: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := doRequest(t, http.MethodGet, srv.URL+tt.url, "", nil)
			require.Equal(t, http.StatusOK, res.StatusCode)

			assert.Empty(t, artistNames(t, body))
			lerr, ok := body["location_error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.code, lerr["code"])
			assert.NotEmpty(t, lerr["message"])
		})
	}
}

func TestNearbySearchSuppressesRanking(t *testing.T) {
	srv := newTestServer(t)

	res, body := doRequest(t, http.MethodGet, srv.URL+"/nearby?lat=0&lng=0&q=blackwork", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, artistNames(t, body))
}

func TestNearbyRejectsBadQuery(t *testing.T) {
	srv := newTestServer(t)

	for _, q := range []string{"lat=1", "lat=abc&lng=0", "lat=95&lng=0", "lat=0&lng=0&limit=0", "geo_error=7"} {
		res, _ := doRequest(t, http.MethodGet, srv.URL+"/nearby?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, q)
	}
}

func TestNearbyGeoJSON(t *testing.T) {
	srv := newTestServer(t)

	res, body := doRequest(t, http.MethodGet, srv.URL+"/nearby.geojson?lat=0&lng=0", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/geo+json", res.Header.Get("Content-Type"))

	assert.Equal(t, "FeatureCollection", body["type"])
	features := body["features"].([]any)
	require.Len(t, features, 2)

	props := features[0].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "Near Ink", props["display_name"])
	assert.InDelta(t, 1, props["rank"], 0)
}

func TestGeocodeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	res, body := doRequest(t, http.MethodGet, srv.URL+"/geocode?city=Fifty", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.InDelta(t, kmNorth(50), body["latitude"], 1e-9)

	res, _ = doRequest(t, http.MethodGet, srv.URL+"/geocode?city=Atlantis", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = doRequest(t, http.MethodGet, srv.URL+"/geocode", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = doRequest(t, http.MethodPost, srv.URL+"/geocode/batch", `{"cities":["Ten","Atlantis","ThreeHundred"]}`, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	results := body["results"].(map[string]any)
	assert.Len(t, results, 3)
	assert.Nil(t, results["Atlantis"])
	assert.NotNil(t, results["Ten"])

	res, _ = doRequest(t, http.MethodPost, srv.URL+"/geocode/batch", `{"cities":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = doRequest(t, http.MethodDelete, srv.URL+"/geocode/cache?expired_only=true", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.InDelta(t, 0, body["removed"], 0)

	res, body = doRequest(t, http.MethodDelete, srv.URL+"/geocode/cache", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.InDelta(t, 0, body["remaining"], 0)
}

func TestDistanceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	res, body := doRequest(t, http.MethodGet, srv.URL+"/distance?from_lat=0&from_lng=0&to_lat=0&to_lng=1", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.InDelta(t, 111.19, body["distance_km"], 1e-9)
	assert.Equal(t, "111km", body["label"])
	assert.Equal(t, "far", body["category"])

	res, _ = doRequest(t, http.MethodGet, srv.URL+"/distance?from_lat=0&from_lng=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, http.MethodGet, srv.URL+"/geocode?city=Ten", "", nil)

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
