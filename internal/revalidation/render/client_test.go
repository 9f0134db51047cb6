package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/brandsite-backend/config"
)

func newTestClient(t *testing.T, h http.Handler, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(config.RenderConfig{
		BaseURL:        srv.URL,
		RevalidatePath: "/api/revalidate",
		Secret:         "s3cret",
		PublicSiteURL:  srv.URL,
		Timeout:        time.Second,
		PrimaryRetries: retries,
	}, srv.Client())
	c.interval = time.Millisecond
	return c
}

func TestRegenerate_SendsPathAndSecret(t *testing.T) {
	var got struct {
		method, path, secret, ctype string
		body                        regenerateRequest
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.secret = r.Header.Get(secretHeader)
		got.ctype = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		_, _ = w.Write([]byte(`{"revalidated":true}`))
	}), 0)

	require.NoError(t, c.Regenerate(context.Background(), "/jane"))
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/revalidate", got.path)
	assert.Equal(t, "s3cret", got.secret)
	assert.Equal(t, "application/json", got.ctype)
	assert.Equal(t, "/jane", got.body.Path)
}

func TestRegenerate_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), 2)

	require.NoError(t, c.Regenerate(context.Background(), "/jane"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRegenerate_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), 2)

	err := c.Regenerate(context.Background(), "/jane")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRegenerate_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad secret", http.StatusUnauthorized)
	}), 5)

	err := c.Regenerate(context.Background(), "/jane")
	require.Error(t, err)
	assert.ErrorContains(t, err, "bad secret")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRegenerate_NotRevalidated(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"revalidated":false,"message":"unknown path"}`))
	}), 3)

	err := c.Regenerate(context.Background(), "/jane")
	assert.ErrorIs(t, err, ErrNotRevalidated)
}

func TestRegenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), 0)
	defer close(release)
	c.timeout = 30 * time.Millisecond

	err := c.Regenerate(context.Background(), "/jane")
	require.Error(t, err)
}

func TestCacheBust_UniqueNoCacheRequests(t *testing.T) {
	var (
		mu      sync.Mutex
		busters = map[string]bool{}
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/jane", r.URL.Path)
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		assert.Equal(t, "no-cache", r.Header.Get("Pragma"))
		mu.Lock()
		busters[r.URL.Query().Get(cacheBustParam)] = true
		mu.Unlock()
	}), 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.CacheBust(context.Background(), "/jane"))
	}
	assert.Len(t, busters, 3)
}

func TestCacheBust_ErrorStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), 0)

	var se *StatusError
	require.ErrorAs(t, c.CacheBust(context.Background(), "/missing"), &se)
	assert.Equal(t, "cache-bust", se.Op)
}
