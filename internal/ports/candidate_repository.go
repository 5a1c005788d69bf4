package ports

import (
	"artist-discovery-service/internal/domain"
	"context"
)

// Port: a boundary for retrieving artist profiles from a data source.
type CandidateRepository interface {
	// Retrieve all artist profiles eligible for discovery.
	ListArtists(ctx context.Context) ([]domain.Candidate, error)
}
