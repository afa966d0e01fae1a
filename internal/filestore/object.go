package filestore

import "time"

// ObjectInfo describes an object after it has been written.
type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string

	// LastModified may be zero when the backend does not report it on upload.
	LastModified time.Time
}
