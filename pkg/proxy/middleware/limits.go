package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/proxy/types"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// RateLimiter holds one token bucket per client IP. Each bucket holds
// Requests tokens and refills at Requests per Window, so a client can burst
// the whole allowance and then continues at the average rate.
type RateLimiter struct {
	requests       int
	window         time.Duration
	limit          rate.Limit
	exempt         map[string]bool
	trustForwarded bool
	metrics        *metrics.Collector
	logger         *slog.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a per-client limiter from cfg.
func NewRateLimiter(cfg config.LimitsConfig, collector *metrics.Collector, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	exempt := make(map[string]bool, len(cfg.ExemptPaths))
	for _, p := range cfg.ExemptPaths {
		exempt[p] = true
	}
	return &RateLimiter{
		requests:       cfg.Requests,
		window:         cfg.Window,
		limit:          rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		exempt:         exempt,
		trustForwarded: cfg.TrustForwardedFor,
		metrics:        collector,
		logger:         logger.With("component", "ratelimit"),
		limiters:       make(map[string]*clientLimiter),
		now:            time.Now,
	}
}

// Allow reports whether client may make a request now. When it may not,
// the returned duration is how long until the next token.
func (l *RateLimiter) Allow(client string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	cl, ok := l.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.requests)}
		l.limiters[client] = cl
	}
	cl.lastSeen = now
	l.mu.Unlock()

	if cl.limiter.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - cl.limiter.TokensAt(now)
	return false, time.Duration(missing / float64(l.limit) * float64(time.Second))
}

// Cleanup drops limiters idle for longer than one window. A client that
// has been idle that long has a full bucket again, so nothing is lost.
func (l *RateLimiter) Cleanup() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for client, cl := range l.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(l.limiters, client)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients.
func (l *RateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Run calls Cleanup every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Cleanup(); n > 0 {
				l.logger.Debug("dropped idle rate limiters", "count", n, "remaining", l.Clients())
			}
		}
	}
}

// RateLimitMiddleware rejects clients over their allowance with 429 and a
// Retry-After header. Exempt paths are never counted.
//
// Example:
//
//	limiter := NewRateLimiter(cfg.Limits, collector, logger)
//	handler = RateLimitMiddleware(limiter)(handler)
func RateLimitMiddleware(l *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || l.exempt[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			client := proxy.ClientIP(r, l.trustForwarded)
			allowed, retryAfter := l.Allow(client)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.requests))
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))

				l.metrics.RecordRateLimited(r.URL.Path)
				l.logger.WarnContext(r.Context(), "rate limit exceeded",
					"client_ip", client,
					"path", r.URL.Path,
					"retry_after", seconds,
				)

				_ = proxy.WriteErrorResponse(w, types.NewRateLimitError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
