package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"time"
)

const (
	httpMaxAttempts = 3
	httpRetryWait   = 500 * time.Millisecond
)

// HTTPStore fetches and publishes documents over HTTP(S). Reads are
// GETs and writes are PUTs with a JSON body, which is what
// notebook-serving endpoints such as contents APIs expect. Transient
// failures (429, 5xx, and network errors) are retried with a growing
// wait between attempts.
type HTTPStore struct {
	client    *http.Client
	maxTries  int
	retryWait time.Duration
}

// NewHTTPStore returns a store that uses client, or a default client
// when nil.
func NewHTTPStore(client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPStore{
		client:    client,
		maxTries:  httpMaxAttempts,
		retryWait: httpRetryWait,
	}
}

var _ Store = (*HTTPStore)(nil)

func (s *HTTPStore) Read(ctx context.Context, ref string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxTries; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, s.backoff(attempt)); err != nil {
				return nil, err
			}
		}

		body, retry, err := s.get(ctx, ref)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}

	return nil, &StorageError{Op: "GET", Ref: ref, Attempts: s.maxTries, Err: lastErr}
}

func (s *HTTPStore) Write(ctx context.Context, ref string, data []byte) error {
	var lastErr error

	for attempt := 1; attempt <= s.maxTries; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, s.backoff(attempt)); err != nil {
				return err
			}
		}

		retry, err := s.put(ctx, ref, data)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return &StorageError{Op: "PUT", Ref: ref, Attempts: s.maxTries, Err: lastErr}
}

// backoff doubles the wait per attempt with a little jitter so parallel
// runs against one endpoint do not retry in lockstep.
func (s *HTTPStore) backoff(attempt int) time.Duration {
	d := s.retryWait << (attempt - 2)
	return d + rand.N(d/2+1)
}

// get performs one GET attempt. retry reports whether the failure is
// worth another try.
func (s *HTTPStore) get(ctx context.Context, ref string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%s: %w", ref, fs.ErrNotExist)
	case retryableStatus(resp.StatusCode):
		return nil, true, fmt.Errorf("GET %s: %s", ref, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("GET %s: %s", ref, resp.Status)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading %s: %w", ref, err)
	}
	return body, false, nil
}

// put performs one PUT attempt.
func (s *HTTPStore) put(ctx context.Context, ref string, data []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ref, bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case retryableStatus(resp.StatusCode):
		return true, fmt.Errorf("PUT %s: %s", ref, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, fmt.Errorf("PUT %s: %s", ref, resp.Status)
	}
	return false, nil
}

// retryableStatus reports whether the server asked for another try.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// sleepCtx waits for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
