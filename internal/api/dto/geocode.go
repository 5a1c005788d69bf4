package dto

type GeocodeQuery struct {
	City string `validate:"required,max=200"`
}

type CoordinatesResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type GeocodeResponse struct {
	City string `json:"city"`
	CoordinatesResponse
}

type BatchGeocodeRequest struct {
	Cities []string `json:"cities" validate:"required,min=1,max=50,dive,max=200"`
}

type BatchGeocodeResponse struct {
	Results map[string]*CoordinatesResponse `json:"results"`
}

type ClearCacheResponse struct {
	ExpiredOnly bool `json:"expired_only"`
	Removed     *int `json:"removed,omitempty"`
	Remaining   int  `json:"remaining"`
}
