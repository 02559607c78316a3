// Package blob stores binary objects (item photos, persisted snapshots) on
// the local filesystem or an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("blob not found")

// Driver names.
const (
	DriverFS = "fs"
	DriverS3 = "s3"
)

// Store is a flat key/value object store.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get returns the object body and content type. Callers close the body.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	// URL returns a URL clients can resolve the object at.
	URL(key string) string
	Driver() string
}

// CleanKey normalizes key and rejects keys that escape the store root.
func CleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", errors.New("empty blob key")
	}
	return k, nil
}
