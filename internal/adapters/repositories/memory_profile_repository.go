package repositories

import (
	"artist-discovery-service/internal/domain"
	"context"
	"slices"
)

// In-memory CandidateRepository used when no database is configured.
type MemoryProfileRepository struct {
	artists []domain.Candidate
}

// NewMemoryProfileRepository keeps the artist rows of seeds, in seed order.
func NewMemoryProfileRepository(seeds []ProfileSeed) *MemoryProfileRepository {
	artists := make([]domain.Candidate, 0, len(seeds))
	for _, s := range seeds {
		if s.Role != RoleArtist {
			continue
		}
		artists = append(artists, domain.Candidate{
			ID:          s.ID,
			DisplayName: s.DisplayName,
			Location:    s.Location,
		})
	}
	return &MemoryProfileRepository{artists: artists}
}

func (m *MemoryProfileRepository) ListArtists(ctx context.Context) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(m.artists), nil
}
