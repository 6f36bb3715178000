package storage

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastHTTPStore drops the retry wait so failure tests stay quick.
func fastHTTPStore(client *http.Client) *HTTPStore {
	store := NewHTTPStore(client)
	store.retryWait = time.Millisecond
	return store
}

func TestHTTPStore_Read(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"cells":[]}`))
	}))
	defer srv.Close()

	store := fastHTTPStore(srv.Client())

	data, err := store.Read(context.Background(), srv.URL+"/nb.ipynb")
	require.NoError(t, err)
	assert.Equal(t, `{"cells":[]}`, string(data))
}

func TestHTTPStore_ReadRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	store := fastHTTPStore(srv.Client())

	data, err := store.Read(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.EqualValues(t, 3, calls.Load())
}

func TestHTTPStore_ReadGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := fastHTTPStore(srv.Client())

	_, err := store.Read(context.Background(), srv.URL)
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "GET", storageErr.Op)
	assert.Equal(t, httpMaxAttempts, storageErr.Attempts)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.EqualValues(t, httpMaxAttempts, calls.Load())
}

func TestHTTPStore_ReadNotFoundDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := fastHTTPStore(srv.Client())

	_, err := store.Read(context.Background(), srv.URL+"/missing.ipynb")
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.EqualValues(t, 1, calls.Load())
}

// ---

func TestHTTPStore_WritePutsJSON(t *testing.T) {
	var (
		gotMethod string
		gotCT     string
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	store := fastHTTPStore(srv.Client())

	err := store.Write(context.Background(), srv.URL+"/out.ipynb", []byte(`{"cells":[]}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, `{"cells":[]}`, string(gotBody))
}

func TestHTTPStore_WriteRetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := fastHTTPStore(srv.Client())

	err := store.Write(context.Background(), srv.URL, []byte("{}"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestHTTPStore_WriteClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store := fastHTTPStore(srv.Client())

	err := store.Write(context.Background(), srv.URL, []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.EqualValues(t, 1, calls.Load())
}
