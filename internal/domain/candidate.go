package domain

// Candidate is a profile that may appear on a nearby surface.
// Location is free text typed by the artist (usually a city); blank means
// the artist did not share one.
type Candidate struct {
	ID          string
	DisplayName string
	Location    string
}

// RankedCandidate is a Candidate annotated with resolved coordinates and
// its distance from the viewer. The embedded Candidate is a copy; ranking
// never mutates the source record.
type RankedCandidate struct {
	Candidate
	Coordinates Coordinates
	DistanceKm  float64
}
