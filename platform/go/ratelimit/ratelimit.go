// Package ratelimit throttles public endpoints per client with token buckets.
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
)

const (
	staleAfter    = 10 * time.Minute
	sweepInterval = time.Minute
)

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows requests per window, refilled continuously, with burst equal to requests.
func NewLimiter(requests int, window time.Duration) *Limiter {
	if requests <= 0 || window <= 0 {
		return &Limiter{buckets: map[string]*bucket{}, limit: rate.Inf, burst: 1, now: time.Now}
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		now:     time.Now,
	}
}

// Allow consumes one token for key. When denied it returns how long to wait.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.sweep(now)
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, delay
}

// sweep drops idle buckets, at most once per sweepInterval. Callers hold l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	threshold := now.Add(-staleAfter)
	for key, b := range l.buckets {
		if b.lastSeen.Before(threshold) {
			delete(l.buckets, key)
		}
	}
}

// Middleware rejects requests over the limit with a 429 problem and Retry-After.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r)
			allowed, retryAfter := l.Allow(key)
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			platformlogging.FromContextOr(r.Context(), zap.NewNop()).Warn("rate limit exceeded",
				zap.String("client", key),
				zap.Int("retry_after_seconds", seconds),
			)

			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			httpapi.WriteProblem(w, httpapi.NewProblem(
				"Too many requests",
				"Please wait before submitting again.",
				httpapi.ProblemTypeRateLimited,
				http.StatusTooManyRequests,
				nil,
			))
		})
	}
}

// ClientKey is the remote IP without port. chi's RealIP middleware has
// already folded proxy headers into RemoteAddr.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
