package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/koustreak/dbverify/internal/filestore"
	"github.com/koustreak/dbverify/internal/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	bucket, key, contentType string
	body                     []byte
	size                     int64
}

type fakeStore struct {
	ensureErr error
	ensured   int
	puts      []putCall
	closed    bool
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) EnsureBucket(context.Context, string) error {
	s.ensured++
	return s.ensureErr
}

func (s *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, ct string) (*filestore.ObjectInfo, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.puts = append(s.puts, putCall{bucket: bucket, key: key, contentType: ct, body: body, size: size})
	return &filestore.ObjectInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

func testReport() *verifier.Report {
	return &verifier.Report{
		ID:        "5f0c6a8e-1b7d-4a53-9b0e-2f6c1d9e7a11",
		Driver:    "postgres",
		Target:    "postgres:5432/hackathon_db",
		Query:     verifier.UsersQuery,
		StartedAt: time.Date(2026, 3, 7, 23, 59, 0, 0, time.FixedZone("X", -2*3600)),
		OK:        true,
		RowCount:  2,
		Data:      "[(1, 'alice'), (2, 'bob')]",
	}
}

func TestArchive_WritesJSONUnderDatedKey(t *testing.T) {
	store := &fakeStore{}
	a := New(store, "reports", "dbverify")

	info, err := a.Archive(context.Background(), testReport())
	require.NoError(t, err)

	require.Len(t, store.puts, 1)
	put := store.puts[0]
	// 23:59 at UTC-2 is the next day in UTC.
	assert.Equal(t, "dbverify/2026/03/08/5f0c6a8e-1b7d-4a53-9b0e-2f6c1d9e7a11.json", put.key)
	assert.Equal(t, "reports", put.bucket)
	assert.Equal(t, "application/json", put.contentType)
	assert.Equal(t, int64(len(put.body)), put.size)
	assert.Equal(t, put.key, info.Key)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(put.body, &decoded))
	assert.Equal(t, "[(1, 'alice'), (2, 'bob')]", decoded["data"])
	assert.Equal(t, true, decoded["ok"])
}

func TestArchive_EnsuresBucketOnce(t *testing.T) {
	store := &fakeStore{}
	a := New(store, "reports", "")

	for i := 0; i < 3; i++ {
		_, err := a.Archive(context.Background(), testReport())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.ensured)
	assert.Equal(t, "2026/03/08/5f0c6a8e-1b7d-4a53-9b0e-2f6c1d9e7a11.json", store.puts[0].key)
}

func TestArchive_BucketFailureRetried(t *testing.T) {
	store := &fakeStore{ensureErr: errors.New("no route to host")}
	a := New(store, "reports", "dbverify")

	_, err := a.Archive(context.Background(), testReport())
	require.Error(t, err)
	assert.Empty(t, store.puts)

	store.ensureErr = nil
	_, err = a.Archive(context.Background(), testReport())
	require.NoError(t, err)
	assert.Equal(t, 2, store.ensured)
}

func TestClose(t *testing.T) {
	store := &fakeStore{}
	require.NoError(t, New(store, "b", "p").Close())
	assert.True(t, store.closed)
}
