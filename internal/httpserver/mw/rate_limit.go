package mw

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/guard"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/respond"
)

type RateLimitConfig struct {
	RPS        float64
	Burst      int
	IdleTTL    time.Duration
	TrustProxy bool // resolve the client from proxy headers when true
}

// keyedLimiter applies a token bucket per client and evicts idle entries
// every 512 hits.
type keyedLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*bucket
	hits  uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(cfg RateLimitConfig) *keyedLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &keyedLimiter{
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		idleTTL: cfg.IdleTTL,
		byKey:   make(map[string]*bucket),
	}
}

// reserve consumes one token for key. When denied it returns how long the
// client should wait.
func (l *keyedLimiter) reserve(key string, now time.Time) (bool, time.Duration) {
	key = strings.TrimSpace(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = b
	}
	b.lastSeen = now

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RateLimit answers 429 with Retry-After once a client exhausts its bucket.
// A non-positive RPS disables limiting.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newKeyedLimiter(cfg)
	limitStr := strconv.Itoa(l.burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := guard.ClientAddr(r, cfg.TrustProxy)

			ok, wait := l.reserve(key, time.Now())
			if !ok {
				secs := int(wait.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("X-RateLimit-Limit", limitStr)
				respond.Error(w, domain.Errorf(domain.KindRateLimited, "too many requests, retry in %ds", secs))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
