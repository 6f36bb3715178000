package storage

import (
	"context"
	"fmt"
	"io"
)

// StdioStore reads documents from one stream and writes them to
// another. It backs the StdStream ref so notebooks can flow through a
// shell pipeline without touching disk.
type StdioStore struct {
	in  io.Reader
	out io.Writer
}

// NewStdioStore returns a store over the given streams.
func NewStdioStore(in io.Reader, out io.Writer) *StdioStore {
	return &StdioStore{in: in, out: out}
}

var _ Store = (*StdioStore)(nil)

func (s *StdioStore) Read(_ context.Context, _ string) ([]byte, error) {
	data, err := io.ReadAll(s.in)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

func (s *StdioStore) Write(_ context.Context, _ string, data []byte) error {
	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("writing stdout: %w", err)
	}
	return nil
}
