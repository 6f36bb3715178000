package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// LocalStore reads and writes files on the local filesystem. Writes go
// through a temp file in the target directory and a rename, so a crash
// mid-write never leaves a truncated notebook behind. Paths ending in
// .gz are compressed and decompressed transparently.
type LocalStore struct{}

// NewLocalStore returns a store backed by the local filesystem.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

var _ Store = (*LocalStore)(nil)

func (s *LocalStore) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !gzipPath(path) {
		return data, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return plain, nil
}

func (s *LocalStore) Write(_ context.Context, path string, data []byte) error {
	if gzipPath(path) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("compressing %s: %w", path, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compressing %s: %w", path, err)
		}
		data = buf.Bytes()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	return atomicWriteFile(path, data)
}

// atomicWriteFile writes data to a temp file next to path and renames
// it into place. Rename is atomic on POSIX filesystems, so a concurrent
// reader sees either the old content or the new, never a partial write.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	// No-op once the rename has happened.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	// CreateTemp opens the file mode 0600.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting temp file mode: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func gzipPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}
