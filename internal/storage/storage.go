package storage

// Package storage contains the content store: flat-blob persistence for raw
// markdown bodies, keyed by the generated filename. Backends must tolerate
// deleting a blob that is already gone, since concurrent expiration sweeps
// race on cleanup.

import (
	"context"
	"io"
)

// Store is the content-blob store interface. Filenames are opaque,
// system-generated, and never reused.
type Store interface {
	// Put writes a blob under the given name. Size is the exact number of
	// bytes when known, or -1 to let the backend buffer as needed.
	Put(ctx context.Context, name string, r io.Reader, size int64) error
	// Get retrieves a blob's content as a streaming reader. A missing blob
	// is an error: metadata pointing at a nonexistent blob is a detectable
	// inconsistency.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes a blob by name. Deleting a missing blob returns nil.
	Delete(ctx context.Context, name string) error
}
