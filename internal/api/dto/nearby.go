package dto

import "artist-discovery-service/internal/domain"

// NearbyQuery is the parsed query string of GET /nearby.
// Lat and Lng come as a pair; Ts is the fix time in unix milliseconds.
type NearbyQuery struct {
	Lat      *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lng      *float64 `validate:"omitempty,gte=-180,lte=180"`
	Ts       *int64   `validate:"omitempty,gt=0"`
	GeoError *int     `validate:"omitempty,oneof=0 1 2 3"`
	Q        string   `validate:"max=200"`
	RadiusKm *float64 `validate:"omitempty,gt=0,lte=20040"`
	Limit    *int     `validate:"omitempty,gte=1,lte=100"`
}

type NearbyArtistResponse struct {
	ID               string  `json:"id"`
	DisplayName      string  `json:"display_name"`
	Location         string  `json:"location"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	DistanceKm       float64 `json:"distance_km"`
	DistanceLabel    string  `json:"distance_label"`
	DistanceCategory string  `json:"distance_category"`
}

type NearbyResponse struct {
	SessionID     string                 `json:"session_id"`
	RadiusKm      float64                `json:"radius_km"`
	Artists       []NearbyArtistResponse `json:"artists"`
	Superseded    bool                   `json:"superseded,omitempty"`
	LocationError *domain.LocationError  `json:"location_error,omitempty"`
}
