package cache

import (
	"artist-discovery-service/internal/domain"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// BlobStore keeps named blobs as objects in a gocloud bucket
// (file://, mem://, s3://, gs://, ...).
type BlobStore struct {
	bucket *blob.Bucket
}

func NewBlobStore(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{bucket: bucket}
}

// OpenBlobStore opens the bucket at bucketURL. Local file buckets get their
// directory created first.
func OpenBlobStore(ctx context.Context, bucketURL string) (*BlobStore, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open blob store: parse url %q: %w", bucketURL, err)
	}
	if u.Scheme == "file" {
		if err := os.MkdirAll(u.Path, 0o750); err != nil {
			return nil, fmt.Errorf("open blob store: create dir %q: %w", u.Path, err)
		}
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open blob store: open bucket %q: %w", bucketURL, err)
	}

	return &BlobStore{bucket: bucket}, nil
}

func (s *BlobStore) Load(ctx context.Context, name string) ([]byte, error) {
	if s.bucket == nil {
		return nil, errors.New("blob store: bucket is nil")
	}

	data, err := s.bucket.ReadAll(ctx, name)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("load blob %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load blob %q: %w", name, err)
	}

	return data, nil
}

func (s *BlobStore) Save(ctx context.Context, name string, data []byte) error {
	if s.bucket == nil {
		return errors.New("blob store: bucket is nil")
	}

	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := s.bucket.WriteAll(ctx, name, data, opts); err != nil {
		return fmt.Errorf("save blob %q: %w", name, err)
	}

	return nil
}

func (s *BlobStore) Delete(ctx context.Context, name string) error {
	if s.bucket == nil {
		return errors.New("blob store: bucket is nil")
	}

	if err := s.bucket.Delete(ctx, name); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("delete blob %q: %w", name, err)
	}

	return nil
}

func (s *BlobStore) Close() error {
	if s.bucket == nil {
		return nil
	}
	return s.bucket.Close()
}
