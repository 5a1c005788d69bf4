package handlers

import (
	"artist-discovery-service/internal/api/dto"
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/geo"
	"net/http"
)

// Distance measures the great-circle distance between two points.
func Distance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		req dto.DistanceQuery
		err error
	)
	for key, dst := range map[string]**float64{
		"from_lat": &req.FromLat,
		"from_lng": &req.FromLng,
		"to_lat":   &req.ToLat,
		"to_lng":   &req.ToLng,
	} {
		if *dst, err = queryFloat(q, key); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	from := domain.Coordinates{Latitude: *req.FromLat, Longitude: *req.FromLng}
	to := domain.Coordinates{Latitude: *req.ToLat, Longitude: *req.ToLng}

	km, err := geo.CalculateDistance(from, to)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DistanceResponse{
		DistanceKm: km,
		Label:      geo.FormatDistance(km),
		Category:   string(geo.DistanceCategory(km)),
	})
}
