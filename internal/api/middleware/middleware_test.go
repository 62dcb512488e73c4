package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/daehyunkim/repopersona/internal/api/middleware"
)

// --- fake cache ---

type fakeCache struct {
	mu      sync.Mutex
	counts  map[string]int64
	incrErr error
}

func newFakeCache() *fakeCache { return &fakeCache{counts: make(map[string]int64)} }

func (c *fakeCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *fakeCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *fakeCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *fakeCache) Keys(_ context.Context, _ string) ([]string, error)               { return nil, nil }
func (c *fakeCache) Ping(_ context.Context) error                                     { return nil }

func (c *fakeCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	if c.incrErr != nil {
		return 0, c.incrErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- rate limit ---

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	rl := mw.NewRateLimit(newFakeCache(), 5)
	h := rl.Limit(okHandler())

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
		req.RemoteAddr = "10.0.0.1:53211"
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	rl := mw.NewRateLimit(newFakeCache(), 2)
	h := rl.Limit(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
		req.RemoteAddr = "10.0.0.1:53211"
		h.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_SeparateClientsSeparateBudgets(t *testing.T) {
	rl := mw.NewRateLimit(newFakeCache(), 1)
	h := rl.Limit(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
	req.RemoteAddr = "10.0.0.1:53211"
	h.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
	req.RemoteAddr = "10.0.0.2:53211"
	h.ServeHTTP(second, req)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestRateLimit_UsesForwardedFor(t *testing.T) {
	c := newFakeCache()
	rl := mw.NewRateLimit(c, 1)
	h := rl.Limit(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
		req.RemoteAddr = "127.0.0.1:1000"
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		h.ServeHTTP(w, req)
		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
		}
	}
}

func TestRateLimit_FailsOpenOnCacheError(t *testing.T) {
	c := newFakeCache()
	c.incrErr = errors.New("redis: connection refused")
	rl := mw.NewRateLimit(c, 1)
	h := rl.Limit(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
		req.RemoteAddr = "10.0.0.1:53211"
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// --- recovery ---

func TestRecovery_CatchesPanic(t *testing.T) {
	h := mw.Recovery(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

// --- logging ---

func TestLogger_PassesThrough(t *testing.T) {
	h := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestLogger_EmitsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := chimw.RequestID(mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotEmpty(t, line["request_id"])
	assert.Equal(t, float64(2), line["bytes"])
}
