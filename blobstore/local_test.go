package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	// 1. Create a blob
	blobName := "Layer0/u.npy"
	data := []byte("hello world, this is a test blob for lja")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(tmpDir, "Layer0", "u.npy"))
	require.NoError(t, err)

	// 2. Open and ReadAt
	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6) // "world"
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	// 3. ReadRange
	rangeReader, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	rangeContent, err := io.ReadAll(rangeReader)
	require.NoError(t, err)
	require.Equal(t, "this", string(rangeContent))

	// 4. Put + List
	require.NoError(t, store.Put(ctx, "Layer1/u.npy", []byte("x")))
	require.NoError(t, store.Put(ctx, "other/file", []byte("y")))

	names, err := store.List(ctx, "Layer")
	require.NoError(t, err)
	require.Equal(t, []string{"Layer0/u.npy", "Layer1/u.npy"}, names)

	// 5. ReadAll + Delete
	got, err := ReadAll(ctx, store, "Layer1/u.npy")
	require.NoError(t, err)
	require.Equal(t, "x", string(got))

	require.NoError(t, store.Delete(ctx, "Layer1/u.npy"))
	require.NoError(t, store.Delete(ctx, "Layer1/u.npy"))

	ok, err := Exists(ctx, store, "Layer1/u.npy")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalBlobStore_NotFound(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Open(context.Background(), "missing.npy")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = ReadAll(context.Background(), store, "missing.npy")
	require.ErrorIs(t, err, ErrNotFound)

	names, err := NewLocalStore(filepath.Join(t.TempDir(), "nope")).List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestLocalBlobStore_Overwrite(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", []byte("first")))
	require.NoError(t, store.Put(ctx, "a", []byte("second")))

	got, err := ReadAll(ctx, store, "a")
	require.NoError(t, err)
	require.Equal(t, "second", string(got))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, names, "temporary files must not be listed")
}
