package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinsights/backend/pkg/config"
	"github.com/medinsights/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func TestLocalLimiter_EnforcesBurst(t *testing.T) {
	limiter := NewLocalLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// a different client has its own bucket
	allowed, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLocalLimiter_SweepsIdleClients(t *testing.T) {
	limiter := NewLocalLimiter(1, time.Millisecond)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, limiter.clients, 1)

	limiter.clients["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	limiter.lastSweep = time.Now().Add(-time.Hour)

	_, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)

	_, stale := limiter.clients["10.0.0.1"]
	assert.False(t, stale)
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	limiter := NewLocalLimiter(1, time.Minute)
	handler := rateLimitMiddleware(limiter, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest("POST", "/api/medicines/sales", nil)
	req.RemoteAddr = "10.0.0.9:4000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{name: "remote addr", remote: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "forwarded single", remote: "10.0.0.1:5000", forwarded: "203.0.113.9", want: "203.0.113.9"},
		{name: "forwarded chain", remote: "10.0.0.1:5000", forwarded: "203.0.113.9, 10.0.0.2", want: "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
