// Package filestore defines the object storage interface run reports are
// archived to.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("minio:9000", "minioadmin", "minioadmin", "reports")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := store.PutObject(ctx, cfg.Bucket, key, r, size, "application/json")
package filestore

import (
	"context"
	"io"
)

// Store is implemented by every object storage provider.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// EnsureBucket creates bucket if it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject uploads size bytes from r to key inside bucket.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// Close releases any held resources.
	Close() error
}
