package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxDB is the slice of pgxpool.Pool the repositories need.
type pgxDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Initialize the Postgres schema used by the service.
func InitSchema(ctx context.Context, db pgxDB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	createProfilesQuery := `
	CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		display_name TEXT NOT NULL,
		location TEXT NULL,
		role TEXT NOT NULL DEFAULT 'artist'
	);
	`

	createKVStoreQuery := `
	CREATE TABLE IF NOT EXISTS kv_store (
		name TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_profiles_role
	ON profiles(role);
	`

	statements := []string{
		createProfilesQuery,
		createKVStoreQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
