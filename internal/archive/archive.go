// Package archive stores run reports as JSON objects, one per run, under
// <prefix>/YYYY/MM/DD/<run-id>.json.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"sync"

	"github.com/koustreak/dbverify/internal/errs"
	"github.com/koustreak/dbverify/internal/filestore"
	"github.com/koustreak/dbverify/internal/filestore/minio"
	"github.com/koustreak/dbverify/internal/verifier"
)

const contentType = "application/json"

// Archiver writes reports to a single bucket.
type Archiver struct {
	store  filestore.Store
	bucket string
	prefix string

	mu      sync.Mutex
	ensured bool
}

// New returns an Archiver writing through store.
func New(store filestore.Store, bucket, prefix string) *Archiver {
	return &Archiver{store: store, bucket: bucket, prefix: prefix}
}

// Connect opens the MinIO store described by cfg.
func Connect(ctx context.Context, cfg *filestore.Config, prefix string) (*Archiver, error) {
	store, err := minio.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(store, cfg.Bucket, prefix), nil
}

// Key returns the object key a report is stored under.
func (a *Archiver) Key(r *verifier.Report) string {
	return path.Join(a.prefix, r.StartedAt.UTC().Format("2006/01/02"), r.ID+".json")
}

// Archive uploads r, creating the bucket on first use.
func (a *Archiver) Archive(ctx context.Context, r *verifier.Report) (*filestore.ObjectInfo, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnexpected, "failed to encode report", err)
	}

	return a.store.PutObject(ctx, a.bucket, a.Key(r), bytes.NewReader(body), int64(len(body)), contentType)
}

func (a *Archiver) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ensured {
		return nil
	}
	if err := a.store.EnsureBucket(ctx, a.bucket); err != nil {
		return err
	}
	a.ensured = true
	return nil
}

// Close releases the underlying store.
func (a *Archiver) Close() error {
	return a.store.Close()
}
