// Package storage moves notebook documents between the process and the
// places they live: local files, HTTP(S) endpoints, Azure Blob Storage,
// and the standard streams. Stores deal in whole documents because a
// notebook is parsed and persisted as a unit.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
)

// StdStream is the pseudo-path that selects the standard streams: reads
// come from stdin and writes go to stdout.
const StdStream = "-"

// Store reads and writes whole documents at a location named by ref.
type Store interface {
	// Read returns the full contents at ref.
	Read(ctx context.Context, ref string) ([]byte, error)

	// Write replaces the contents at ref.
	Write(ctx context.Context, ref string, data []byte) error
}

// UnknownSchemeError is returned when a ref carries a URL scheme that no
// registered store claims.
type UnknownSchemeError struct {
	Scheme string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("no store registered for scheme %q", e.Scheme)
}

// StorageError reports a transfer that kept failing after every retry.
type StorageError struct {
	Op       string
	Ref      string
	Attempts int
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: giving up after %d attempts: %v", e.Op, e.Ref, e.Attempts, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Registry maps URL schemes to stores and routes each ref to the right
// one. Refs without a scheme go to the local filesystem, and StdStream
// goes to the standard streams.
type Registry struct {
	mu      sync.RWMutex
	schemes map[string]Store

	local Store
	stdio Store
}

// NewRegistry returns a registry with the built-in stores wired up:
// local files, http(s), and Azure Blob Storage.
func NewRegistry() *Registry {
	r := &Registry{
		schemes: map[string]Store{},
		local:   NewLocalStore(),
		stdio:   NewStdioStore(os.Stdin, os.Stdout),
	}

	web := NewHTTPStore(nil)
	r.Register("http", web)
	r.Register("https", web)
	r.Register("abs", NewAzureBlobStore())

	return r
}

// Register adds a store for a URL scheme, replacing any previous one.
func (r *Registry) Register(scheme string, store Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemes[strings.ToLower(scheme)] = store
}

// UseStdio redirects the StdStream ref to the given streams. The
// command layer points this at its own stdin and stdout.
func (r *Registry) UseStdio(in io.Reader, out io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stdio = NewStdioStore(in, out)
}

// Resolve picks the store responsible for ref. Single-letter schemes
// are treated as Windows drive letters, not URL schemes, so plain file
// paths always land on the local store.
func (r *Registry) Resolve(ref string) (Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ref == StdStream {
		return r.stdio, nil
	}

	u, err := url.Parse(ref)
	if err != nil || len(u.Scheme) <= 1 {
		return r.local, nil
	}

	if store, ok := r.schemes[strings.ToLower(u.Scheme)]; ok {
		return store, nil
	}
	return nil, &UnknownSchemeError{Scheme: u.Scheme}
}

// Read resolves ref and reads it.
func (r *Registry) Read(ctx context.Context, ref string) ([]byte, error) {
	store, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return store.Read(ctx, ref)
}

// Write resolves ref and writes to it.
func (r *Registry) Write(ctx context.Context, ref string, data []byte) error {
	store, err := r.Resolve(ref)
	if err != nil {
		return err
	}
	return store.Write(ctx, ref, data)
}
