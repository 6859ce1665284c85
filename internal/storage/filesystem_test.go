package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilesystemStore(t *testing.T) {
	t.Run("creates the base directory", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "blobs")

		_, err := NewFilesystemStore(base)
		require.NoError(t, err)

		info, err := os.Stat(base)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		_, err := NewFilesystemStore("")
		assert.Error(t, err)
	})
}

func TestFilesystemStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	content := "# Hello\n\nSome *markdown*."
	err = store.Put(ctx, "abc12345-20240601-120000.md", strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	rc, err := store.Get(ctx, "abc12345-20240601-120000.md")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestFilesystemStore_GetMissing(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "never-existed.md")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "never-existed.md")
}

func TestFilesystemStore_Delete(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := NewFilesystemStore(base)
	require.NoError(t, err)

	t.Run("removes an existing blob", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "doomed.md", strings.NewReader("x"), 1))
		require.NoError(t, store.Delete(ctx, "doomed.md"))

		_, err := os.Stat(filepath.Join(base, "doomed.md"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing blob is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "already-gone.md"))
	})
}

func TestFilesystemStore_PathTraversalStripped(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := NewFilesystemStore(base)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "../escape.md", strings.NewReader("x"), 1))

	// The blob must land inside the base directory, not beside it.
	_, err = os.Stat(filepath.Join(base, "escape.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(base), "escape.md"))
	assert.True(t, os.IsNotExist(err))
}
