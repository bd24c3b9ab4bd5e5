package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/medinsights/backend/pkg/logger"
	"github.com/medinsights/backend/pkg/redis"
)

// Limiter decides whether a client's request may proceed
type Limiter interface {
	Allow(ctx context.Context, clientKey string) (bool, error)
}

// AllowAll is the limiter used when rate limiting is disabled
type AllowAll struct{}

func (AllowAll) Allow(ctx context.Context, clientKey string) (bool, error) {
	return true, nil
}

// RedisLimiter enforces a sliding window shared across instances
type RedisLimiter struct {
	limiter *redis.RateLimiter
	limit   int
	window  time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter
func NewRedisLimiter(limiter *redis.RateLimiter, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{limiter: limiter, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.RateLimitConfig{
		Key:    clientKey,
		Limit:  l.limit,
		Window: l.window,
	})
	return allowed, err
}

// LocalLimiter is the in-process fallback when Redis is disabled. Each
// client gets a token bucket; idle entries are swept so the map does
// not grow with every address ever seen.
type LocalLimiter struct {
	mu        sync.Mutex
	clients   map[string]*localClient
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates an in-process limiter allowing limit requests
// per window per client.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		clients:   make(map[string]*localClient),
		limit:     rate.Limit(float64(limit) / window.Seconds()),
		burst:     limit,
		idleAfter: 3 * window,
		lastSweep: time.Now(),
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > l.idleAfter {
		l.sweep(now)
	}

	c, ok := l.clients[clientKey]
	if !ok {
		c = &localClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[clientKey] = c
	}
	c.lastSeen = now

	return c.limiter.Allow(), nil
}

// sweep drops clients idle longer than idleAfter. Caller holds mu.
func (l *LocalLimiter) sweep(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleAfter {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// rateLimitMiddleware rejects requests over the per-client limit
func rateLimitMiddleware(limiter Limiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// A broken limiter must not take the API down
				log.WithError(err).Warn("Rate limit check failed, allowing request")
				allowed = true
			}

			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the originating client address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
