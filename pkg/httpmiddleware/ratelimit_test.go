package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedHandler(t *testing.T, maxRequests int, window time.Duration) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mw := RateLimit(ctx, RateLimitConfig{Max: maxRequests, Window: window})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimit_AllowsUpToMax(t *testing.T) {
	h := newLimitedHandler(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimit_KeysByClientIP(t *testing.T) {
	h := newLimitedHandler(t, 1, time.Minute)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	// A different client has its own window.
	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(second, req)
	assert.Equal(t, http.StatusOK, second.Code)

	// The first client is exhausted.
	third := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5678"
	h.ServeHTTP(third, req)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
}

func TestRateLimit_WindowSlides(t *testing.T) {
	rl := &rateLimiter{
		cfg:     RateLimitConfig{Max: 2, Window: time.Second},
		clients: make(map[string]*window),
	}

	start := time.Now().Truncate(time.Second)
	allowed, _ := rl.allow("c", start)
	require.True(t, allowed)
	allowed, _ = rl.allow("c", start)
	require.True(t, allowed)
	allowed, _ = rl.allow("c", start)
	require.False(t, allowed)

	// Two full windows later the previous counts no longer weigh in.
	allowed, _ = rl.allow("c", start.Add(2*time.Second))
	assert.True(t, allowed)
}

func TestRateLimit_EvictsStaleClients(t *testing.T) {
	rl := &rateLimiter{
		cfg:     RateLimitConfig{Max: 1, Window: time.Second},
		clients: make(map[string]*window),
	}

	start := time.Now()
	rl.allow("stale", start)
	rl.allow("fresh", start.Add(1500*time.Millisecond))

	rl.evictStale(start.Add(2 * time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.clients, "stale")
	assert.Contains(t, rl.clients, "fresh")
}
