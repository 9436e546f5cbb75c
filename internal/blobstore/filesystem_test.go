package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStore_LayoutAndNoTempLeftovers(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root, "quest-bucket")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "Population_by_Year_and_Nation.html", []byte("<html></html>")))

	data, err := os.ReadFile(filepath.Join(root, "quest-bucket", "Population_by_Year_and_Nation.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "quest-bucket"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFilesystemStore_NestedKey(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "quest-bucket")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "reports/latest.html", []byte("x")))

	ok, err := store.Exists(ctx, "reports/latest.html")
	require.NoError(t, err)
	assert.True(t, ok)

	// A prefix directory is not an object
	ok, err = store.Exists(ctx, "reports")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewFilesystemStore_InvalidBucket(t *testing.T) {
	_, err := NewFilesystemStore(t.TempDir(), "../outside")
	assert.Error(t, err)
}
