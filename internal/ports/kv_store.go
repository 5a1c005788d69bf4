package ports

import "context"

// Durable storage for named byte blobs.
// Load returns domain.ErrNotFound when nothing is stored under name.
type KVStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}
