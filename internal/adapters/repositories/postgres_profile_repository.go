package repositories

import (
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/platform/obs"
	"context"
	"errors"
	"fmt"
)

// Postgres-backed implementation of the CandidateRepository port.
type PostgresProfileRepository struct{ DB pgxDB }

func NewPostgresProfileRepository(db pgxDB) *PostgresProfileRepository {
	return &PostgresProfileRepository{DB: db}
}

// Return every artist profile. A NULL location comes back blank.
func (p *PostgresProfileRepository) ListArtists(ctx context.Context) (_ []domain.Candidate, err error) {
	defer obs.Time(ctx, "profiles.ListArtists")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres profile repository: DB is nil")
	}

	query := `
	SELECT
		id::text,
		display_name,
		COALESCE(location, '')
	FROM profiles
	WHERE role = $1
	ORDER BY display_name, id;
	`
	rows, err := p.DB.Query(ctx, query, RoleArtist)
	if err != nil {
		return nil, fmt.Errorf("list artists: query profiles table: %w", err)
	}
	defer rows.Close()

	artists := make([]domain.Candidate, 0, 64)
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.Location); err != nil {
			return nil, fmt.Errorf("list artists: scan row: %w", err)
		}
		artists = append(artists, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artists: row iteration: %w", err)
	}

	return artists, nil
}
