package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

const RoleArtist = "artist"

type ProfileSeed struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Location    string `json:"location"`
	Role        string `json:"role"`
}

// LoadSeed reads and validates a JSON array of profiles. A missing role
// defaults to artist.
func LoadSeed(jsonPath string) ([]ProfileSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var data []ProfileSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("load seed: parse json: %w", err)
	}

	rows := make([]ProfileSeed, 0, len(data))
	for i, item := range data {
		id, err := uuid.Parse(strings.TrimSpace(item.ID))
		if err != nil {
			return nil, fmt.Errorf("load seed: invalid id at index %d: %w", i+1, err)
		}

		name := strings.TrimSpace(item.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("load seed: item at index %d: display_name cannot be empty", i+1)
		}

		role := strings.TrimSpace(item.Role)
		if role == "" {
			role = RoleArtist
		}

		rows = append(rows, ProfileSeed{
			ID:          id.String(),
			DisplayName: name,
			Location:    strings.TrimSpace(item.Location),
			Role:        role,
		})
	}

	return rows, nil
}

// Populate the profiles table from a JSON file.
func SeedFromJSON(ctx context.Context, db pgxDB, jsonPath string) (int, error) {
	rows, err := LoadSeed(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed profiles: %w", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed profiles: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
	INSERT INTO profiles (
		id,
		display_name,
		location,
		role
	)
	VALUES ($1, $2, NULLIF($3, ''), $4)
	ON CONFLICT (id) DO UPDATE SET
		display_name = EXCLUDED.display_name,
		location = EXCLUDED.location,
		role = EXCLUDED.role;
	`
	for _, p := range rows {
		if _, err := tx.Exec(ctx, query, p.ID, p.DisplayName, p.Location, p.Role); err != nil {
			return 0, fmt.Errorf("seed profiles: insert id=%s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("seed profiles: commit tx: %w", err)
	}

	return len(rows), nil
}
