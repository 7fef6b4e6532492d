package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doFrom(t *testing.T, h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBurstThenReject(t *testing.T) {
	rl := NewRateLimiter(20, 2)
	defer rl.Close()
	handler := rl.Middleware(okHandler())

	for i := 0; i < 2; i++ {
		w := doFrom(t, handler, "10.0.0.1:4000")
		require.Equal(t, http.StatusOK, w.Code, "request %d within burst", i)
	}

	w := doFrom(t, handler, "10.0.0.1:4000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))

	// At 20 rps a token refills within 50ms.
	time.Sleep(80 * time.Millisecond)
	w = doFrom(t, handler, "10.0.0.1:4000")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	handler := rl.Middleware(okHandler())

	assert.Equal(t, http.StatusOK, doFrom(t, handler, "10.0.0.1:4000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(t, handler, "10.0.0.1:4001").Code,
		"same IP, different port shares one limiter")

	assert.Equal(t, http.StatusOK, doFrom(t, handler, "10.0.0.2:4000").Code,
		"a different IP gets its own limiter")
}

func TestRateLimiterHandlesBareAddr(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	handler := rl.Middleware(okHandler())

	// RemoteAddr without a port must not panic, and still rate-limits.
	assert.Equal(t, http.StatusOK, doFrom(t, handler, "[::1]").Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(t, handler, "[::1]").Code)
}
