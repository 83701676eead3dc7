// Package storage holds uploaded blobs (product images, videos, thumbnails) behind one interface.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when no blob is stored under the key.
var ErrNotExist = errors.New("storage: blob does not exist")

// Object is an opened blob. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// BlobStore is a flat key/value store for uploaded files. Keys are slash-separated relative paths.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
