package dto

type DistanceQuery struct {
	FromLat *float64 `validate:"required,gte=-90,lte=90"`
	FromLng *float64 `validate:"required,gte=-180,lte=180"`
	ToLat   *float64 `validate:"required,gte=-90,lte=90"`
	ToLng   *float64 `validate:"required,gte=-180,lte=180"`
}

type DistanceResponse struct {
	DistanceKm float64 `json:"distance_km"`
	Label      string  `json:"label"`
	Category   string  `json:"category"`
}
