package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_RuleLimitThenReject(t *testing.T) {
	rl := NewRateLimit(RateLimitConfig{
		Rules: []RateLimitRule{
			{Requests: 2, Window: time.Minute, Paths: []string{"/login"}},
		},
	})
	handler := rl.Middleware(okHandler())

	first := doRequest(handler, "/login", "10.0.0.1")
	second := doRequest(handler, "/login", "10.0.0.1")
	third := doRequest(handler, "/login", "10.0.0.1")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)

	retryAfter, err := strconv.Atoi(third.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retryAfter, 0)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(third.Body.Bytes(), &body))
	assert.False(t, body.OK)
	assert.Greater(t, body.Error.RetryAfter, 0)
	assert.NotEmpty(t, body.Error.Message)
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimit(RateLimitConfig{
		Rules: []RateLimitRule{
			{Requests: 1, Window: time.Minute, Paths: []string{"/login"}},
		},
	})
	handler := rl.Middleware(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "/login", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "/login", "10.0.0.1").Code)

	// A different client is counted separately.
	assert.Equal(t, http.StatusOK, doRequest(handler, "/login", "10.0.0.2").Code)

	// The same client on an unruled path uses the global scope.
	assert.Equal(t, http.StatusOK, doRequest(handler, "/about", "10.0.0.1").Code)
}

func TestRateLimit_ExemptPathsBypass(t *testing.T) {
	rl := NewRateLimit(RateLimitConfig{
		ExemptPaths: []string{"/healthz"},
		Rules: []RateLimitRule{
			{Requests: 1, Window: time.Minute, Paths: []string{"/"}},
		},
	})
	handler := rl.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(handler, "/healthz", "10.0.0.1").Code)
	}
}

func TestRateLimit_WindowSlides(t *testing.T) {
	now := time.Now()
	rl := NewRateLimit(RateLimitConfig{
		Rules: []RateLimitRule{
			{Requests: 1, Window: time.Minute, Paths: []string{"/login"}},
		},
	})
	rl.now = func() time.Time { return now }
	handler := rl.Middleware(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "/login", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "/login", "10.0.0.1").Code)

	now = now.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, doRequest(handler, "/login", "10.0.0.1").Code)
}

func TestRateLimit_RetryAfterFallsBackToFullWindow(t *testing.T) {
	rl := NewRateLimit(RateLimitConfig{})

	// A zero limit trips with no in-window events observed; the hint
	// falls back to the full window.
	allowed, retryAfter := rl.allow("key", 0, time.Minute)
	assert.False(t, allowed)
	assert.Equal(t, 60, retryAfter)
}

func TestRateLimit_CleanupPurgesStaleKeys(t *testing.T) {
	now := time.Now()
	rl := NewRateLimit(RateLimitConfig{})
	rl.now = func() time.Time { return now }
	handler := rl.Middleware(okHandler())

	doRequest(handler, "/a", "10.0.0.1")
	doRequest(handler, "/b", "10.0.0.2")
	require.Len(t, rl.events, 2)

	now = now.Add(5 * time.Minute)
	doRequest(handler, "/c", "10.0.0.3")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.events, 1)
}

func TestClientIP_ResolutionOrder(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 198.51.100.2")
	req.Header.Set("X-Real-IP", "203.0.113.5")
	assert.Equal(t, "198.51.100.1", ClientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "203.0.113.5", ClientIP(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "192.0.2.9", ClientIP(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", ClientIP(req))
}
