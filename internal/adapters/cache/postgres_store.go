package cache

import (
	"artist-discovery-service/internal/domain"
	"artist-discovery-service/internal/platform/obs"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the subset of *pgxpool.Pool the store needs.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps named blobs in the kv_store table.
type PostgresStore struct {
	DB  pgxQuerier
	now func() time.Time
}

func NewPostgresStore(db pgxQuerier) *PostgresStore {
	return &PostgresStore{DB: db, now: time.Now}
}

// Fetch the blob stored under name.
func (s *PostgresStore) Load(ctx context.Context, name string) (_ []byte, err error) {
	defer obs.Time(ctx, "kv.postgres.Load")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres store: db is nil")
	}

	q := `
	SELECT value
	FROM kv_store
	WHERE name = $1;
	`

	var data []byte
	if err := s.DB.QueryRow(ctx, q, name).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load kv %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load kv %q: query kv_store table: %w", name, err)
	}

	return data, nil
}

// Insert or overwrite the blob stored under name.
func (s *PostgresStore) Save(ctx context.Context, name string, data []byte) (err error) {
	defer obs.Time(ctx, "kv.postgres.Save")(&err)

	if s.DB == nil {
		return errors.New("postgres store: db is nil")
	}

	q := `
	INSERT INTO kv_store (name, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at;
	`

	if _, err := s.DB.Exec(ctx, q, name, data, s.now().UTC()); err != nil {
		return fmt.Errorf("save kv %q: %w", name, err)
	}

	return nil
}

// Remove the blob stored under name. Removing a missing name is not an error.
func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	if s.DB == nil {
		return errors.New("postgres store: db is nil")
	}

	if _, err := s.DB.Exec(ctx, `DELETE FROM kv_store WHERE name = $1;`, name); err != nil {
		return fmt.Errorf("delete kv %q: %w", name, err)
	}

	return nil
}
