package handlers

import (
	"artist-discovery-service/internal/adapters/location"
	"artist-discovery-service/internal/api/dto"
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/geo"
	"artist-discovery-service/internal/ports"
	"artist-discovery-service/internal/services"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
)

const SessionHeader = "X-Session-ID"

type NearbyHandler struct {
	Repo            ports.CandidateRepository
	Locations       *services.LocationService
	Feeds           *services.FeedRegistry
	DefaultRadiusKm float64
	DefaultLimit    int
	Logger          *slog.Logger
}

// nearbyResult is one run of the pipeline shared by the JSON and GeoJSON
// renderings.
type nearbyResult struct {
	sessionID     string
	radiusKm      float64
	artists       []domain.RankedCandidate
	superseded    bool
	locationError *domain.LocationError
}

// List returns nearby artists ranked by distance.
func (h *NearbyHandler) List(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	out := dto.NearbyResponse{
		SessionID:     res.sessionID,
		RadiusKm:      res.radiusKm,
		Artists:       make([]dto.NearbyArtistResponse, 0, len(res.artists)),
		Superseded:    res.superseded,
		LocationError: res.locationError,
	}
	for _, a := range res.artists {
		out.Artists = append(out.Artists, dto.NearbyArtistResponse{
			ID:               a.ID,
			DisplayName:      a.DisplayName,
			Location:         a.Location,
			Latitude:         a.Coordinates.Latitude,
			Longitude:        a.Coordinates.Longitude,
			DistanceKm:       a.DistanceKm,
			DistanceLabel:    geo.FormatDistance(a.DistanceKm),
			DistanceCategory: string(geo.DistanceCategory(a.DistanceKm)),
		})
	}

	writeJSON(w, r, http.StatusOK, out)
}

// GeoJSON returns the same ranking as a FeatureCollection of points.
func (h *NearbyHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	fc := geojson.NewFeatureCollection()
	for i, a := range res.artists {
		f := geojson.NewFeature(a.Coordinates.Point())
		f.ID = a.ID
		f.Properties["rank"] = i + 1
		f.Properties["display_name"] = a.DisplayName
		f.Properties["location"] = a.Location
		f.Properties["distance_km"] = a.DistanceKm
		f.Properties["distance_label"] = geo.FormatDistance(a.DistanceKm)
		f.Properties["distance_category"] = string(geo.DistanceCategory(a.DistanceKm))
		fc.Append(f)
	}

	fc.ExtraMembers = geojson.Properties{
		"session_id": res.sessionID,
		"radius_km":  res.radiusKm,
	}
	if res.locationError != nil {
		fc.ExtraMembers["location_error"] = res.locationError
	}

	writeJSONAs(w, r, http.StatusOK, "application/geo+json", fc)
}

// run parses the request, resolves the viewer location and refreshes the
// session's feed. On false the response has already been written.
func (h *NearbyHandler) run(w http.ResponseWriter, r *http.Request) (nearbyResult, bool) {
	ctx := r.Context()

	sessionID := r.Header.Get(SessionHeader)
	if _, err := uuid.Parse(sessionID); err != nil {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)

	q, err := parseNearbyQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nearbyResult{}, false
	}

	res := nearbyResult{
		sessionID: sessionID,
		radiusKm:  h.DefaultRadiusKm,
		artists:   []domain.RankedCandidate{},
	}
	if q.RadiusKm != nil {
		res.radiusKm = *q.RadiusKm
	}
	limit := h.DefaultLimit
	if q.Limit != nil {
		limit = *q.Limit
	}

	loc, err := h.Locations.Resolve(ctx, sessionID, positionSource(q))
	if err != nil {
		var lerr *domain.LocationError
		if errors.As(err, &lerr) {
			res.locationError = lerr
			return res, true
		}
		h.Logger.ErrorContext(ctx, "resolve location failed", "session", sessionID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nearbyResult{}, false
	}

	artists, err := h.Repo.ListArtists(ctx)
	if err != nil {
		h.Logger.ErrorContext(ctx, "list artists failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nearbyResult{}, false
	}

	list, applied, err := h.Feeds.For(sessionID).Refresh(ctx, services.DiscoveryRequest{
		Location:    &loc,
		Candidates:  artists,
		SearchTerms: q.Q,
		RadiusKm:    res.radiusKm,
		Limit:       limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidCoordinates) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return nearbyResult{}, false
		}
		h.Logger.ErrorContext(ctx, "nearby refresh failed", "session", sessionID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nearbyResult{}, false
	}

	res.artists = list
	res.superseded = !applied
	return res, true
}

func parseNearbyQuery(r *http.Request) (dto.NearbyQuery, error) {
	values := r.URL.Query()

	var (
		q   dto.NearbyQuery
		err error
	)
	if q.Lat, err = queryFloat(values, "lat"); err != nil {
		return q, err
	}
	if q.Lng, err = queryFloat(values, "lng"); err != nil {
		return q, err
	}
	if q.Ts, err = queryInt64(values, "ts"); err != nil {
		return q, err
	}
	if q.GeoError, err = queryInt(values, "geo_error"); err != nil {
		return q, err
	}
	if q.RadiusKm, err = queryFloat(values, "radius_km"); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(values, "limit"); err != nil {
		return q, err
	}
	q.Q = values.Get("q")

	if (q.Lat == nil) != (q.Lng == nil) {
		return q, errors.New("lat and lng must be given together")
	}
	if err := validate.Struct(q); err != nil {
		return q, errors.New(validationMessage(err))
	}
	return q, nil
}

// positionSource turns what the client reported into a PositionSource.
// Nil means the client sent nothing and only a cached position can help.
func positionSource(q dto.NearbyQuery) ports.PositionSource {
	switch {
	case q.GeoError != nil:
		return location.FromFailure(domain.LocationErrorCode(*q.GeoError))
	case q.Lat != nil:
		at := time.Now()
		if q.Ts != nil {
			at = time.UnixMilli(*q.Ts)
		}
		return location.FromFix(domain.Coordinates{Latitude: *q.Lat, Longitude: *q.Lng}, at)
	default:
		return nil
	}
}
