package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	store := NewLocalStore()
	path := filepath.Join(t.TempDir(), "runs", "2026", "out.ipynb")

	err := store.Write(context.Background(), path, []byte(`{"cells":[]}`))
	require.NoError(t, err)

	data, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, `{"cells":[]}`, string(data))
}

func TestLocalStore_ReadMissing(t *testing.T) {
	store := NewLocalStore()

	_, err := store.Read(context.Background(), filepath.Join(t.TempDir(), "nope.ipynb"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLocalStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	store := NewLocalStore()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ipynb")

	require.NoError(t, store.Write(context.Background(), path, []byte("first")))
	require.NoError(t, store.Write(context.Background(), path, []byte("second")))

	data, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.ipynb", entries[0].Name())
}

func TestLocalStore_WriteIsWorldReadable(t *testing.T) {
	store := NewLocalStore()
	path := filepath.Join(t.TempDir(), "out.ipynb")

	require.NoError(t, store.Write(context.Background(), path, []byte("{}")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o644), info.Mode().Perm())
}

// ---

func TestLocalStore_GzipRoundTrip(t *testing.T) {
	store := NewLocalStore()
	path := filepath.Join(t.TempDir(), "out.ipynb.gz")

	err := store.Write(context.Background(), path, []byte(`{"cells":[]}`))
	require.NoError(t, err)

	// On disk it is gzip, through the store it is the original bytes.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2])

	data, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, `{"cells":[]}`, string(data))
}

func TestLocalStore_GzipReadRejectsPlainFile(t *testing.T) {
	store := NewLocalStore()
	path := filepath.Join(t.TempDir(), "out.ipynb.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	_, err := store.Read(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decompressing")
}
