package handlers

import (
	"artist-discovery-service/internal/api/dto"
	"artist-discovery-service/internal/ports"
	"context"
	"log/slog"
	"net/http"
)

// GeocodeCache is the maintenance surface of the city cache.
type GeocodeCache interface {
	ClearExpiredCache(ctx context.Context) int
	ClearAllCache(ctx context.Context) error
	CacheSize() int
}

type GeocodeHandler struct {
	Geocoder ports.Geocoder
	Cache    GeocodeCache
	Logger   *slog.Logger
}

// Get resolves one city.
func (h *GeocodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := dto.GeocodeQuery{City: r.URL.Query().Get("city")}
	if err := validate.Struct(q); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	coords, err := h.Geocoder.GetCityCoordinates(r.Context(), q.City)
	if err != nil {
		status := geocodeStatus(err)
		if status >= http.StatusInternalServerError {
			h.Logger.ErrorContext(r.Context(), "geocode failed", "city", q.City, "error", err)
		}
		writeError(w, r, status, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, dto.GeocodeResponse{
		City: q.City,
		CoordinatesResponse: dto.CoordinatesResponse{
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
		},
	})
}

// Batch resolves several cities. Failed cities map to null; the request
// itself only fails on a malformed body.
func (h *GeocodeHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchGeocodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	resolved := h.Geocoder.GetBatchCoordinates(r.Context(), req.Cities)

	res := dto.BatchGeocodeResponse{Results: make(map[string]*dto.CoordinatesResponse, len(resolved))}
	for city, c := range resolved {
		if c == nil {
			res.Results[city] = nil
			continue
		}
		res.Results[city] = &dto.CoordinatesResponse{Latitude: c.Latitude, Longitude: c.Longitude}
	}

	writeJSON(w, r, http.StatusOK, res)
}

// ClearCache sweeps expired entries, or empties the cache unless
// expired_only=true.
func (h *GeocodeHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	expiredOnly, err := queryBool(r.URL.Query(), "expired_only")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res := dto.ClearCacheResponse{ExpiredOnly: expiredOnly}
	if expiredOnly {
		removed := h.Cache.ClearExpiredCache(r.Context())
		res.Removed = &removed
	} else if err := h.Cache.ClearAllCache(r.Context()); err != nil {
		h.Logger.ErrorContext(r.Context(), "clear city cache failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	res.Remaining = h.Cache.CacheSize()

	writeJSON(w, r, http.StatusOK, res)
}
