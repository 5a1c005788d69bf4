package handlers

import (
	"net/http"
)

type HealthHandler struct {
	Cache GeocodeCache
}

// Health is a liveness check that also reports the city cache size.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{"status": "ok"}
	if h.Cache != nil {
		res["cached_cities"] = h.Cache.CacheSize()
	}
	writeJSON(w, r, http.StatusOK, res)
}
