package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// Sink receives run events. Sinks observe a run and never influence it:
// a failing sink is reported but execution carries on.
type Sink interface {
	Log(event Event) error
	Close() error
}

// JSONLSink writes events as newline-delimited JSON (NDJSON).
type JSONLSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	path string
}

// NewJSONLSink creates a sink that appends NDJSON to the given path.
// Parent directories are created automatically.
func NewJSONLSink(path string) (*JSONLSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating execution log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening execution log: %w", err)
	}

	return &JSONLSink{
		file: f,
		enc:  json.NewEncoder(f),
		path: path,
	}, nil
}

// Log writes a single event as one JSON line.
func (l *JSONLSink) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(event)
}

// Close flushes and closes the underlying file.
func (l *JSONLSink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the file path of the execution log.
func (l *JSONLSink) Path() string {
	return l.path
}

// SlogSink forwards events to a structured logger, one record per event
// with the event data flattened into attributes.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink over logger, or slog.Default when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Log emits one Info record for the event. Attributes come out in key
// order so log lines are stable.
func (s *SlogSink) Log(event Event) error {
	args := make([]any, 0, 2*len(event.Data))
	for _, k := range slices.Sorted(maps.Keys(event.Data)) {
		args = append(args, k, event.Data[k])
	}
	s.logger.Info(string(event.Type), args...)
	return nil
}

// Close is a no-op.
func (s *SlogSink) Close() error { return nil }

// CallbackSink forwards each event to a function.
type CallbackSink func(Event)

// Log invokes the callback.
func (s CallbackSink) Log(event Event) error {
	s(event)
	return nil
}

// Close is a no-op.
func (s CallbackSink) Close() error { return nil }

// NopSink discards all events. Useful as a default when logging is disabled.
type NopSink struct{}

// Log is a no-op.
func (NopSink) Log(Event) error { return nil }

// Close is a no-op.
func (NopSink) Close() error { return nil }

// MultiSink fans each event out to every sink in order.
type MultiSink []Sink

// Log sends the event to each sink, joining any errors.
func (m MultiSink) Log(event Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Log(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes each sink, joining any errors.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultLogPath returns a timestamped execution log path inside dir.
func DefaultLogPath(dir string) string {
	ts := time.Now().UTC().Format("20060102T150405Z")
	return filepath.Join(dir, fmt.Sprintf("%s-run.jsonl", ts))
}
