// Package blobstore moves immutable graph artifact sets between the local
// file system and remote object storage. Compressed graphs are produced
// locally and served from wherever the mapping lives; the store is how the
// artifacts travel.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error satisfying errors.Is(err, ErrNotFound);
// the default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction over immutable named blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Put stores a blob under name, replacing any previous content.
	Put(ctx context.Context, name string, r io.Reader) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
