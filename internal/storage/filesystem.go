package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilesystemStore keeps content blobs as flat files under a base directory.
// This is the default backend.
type FilesystemStore struct {
	basePath string
}

var _ Store = (*FilesystemStore)(nil)

// NewFilesystemStore creates a filesystem-backed content store, creating the
// base directory if it does not exist.
func NewFilesystemStore(basePath string) (*FilesystemStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FilesystemStore{basePath: basePath}, nil
}

// Put writes the blob to disk. A partial file left by a failed write is removed.
func (s *FilesystemStore) Put(_ context.Context, name string, r io.Reader, _ int64) error {
	path := s.blobPath(name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Get opens the blob for reading.
func (s *FilesystemStore) Get(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(s.blobPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", name, err)
	}
	return f, nil
}

// Delete removes the blob. A missing file is not an error.
func (s *FilesystemStore) Delete(_ context.Context, name string) error {
	path := s.blobPath(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}

func (s *FilesystemStore) blobPath(name string) string {
	// Names are system-generated, but strip any path components anyway.
	return filepath.Join(s.basePath, filepath.Base(name))
}
