package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig bounds how fast one client may request aggregations.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// staleAfter is how long an idle client's bucket survives before the next
// sweep drops it.
const staleAfter = 3 * time.Minute

// ipLimiter keeps one token bucket per client IP. Each aggregation request
// fans out into a dozen backend queries, so the limit is applied per caller
// before any fetch starts. A single mutex is enough here; the service
// serves one aggregate endpoint, not a fleet of routes.
type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	rate      float64
	burst     float64
	lastSweep time.Time
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	return &ipLimiter{
		clients:   make(map[string]*clientBucket),
		rate:      cfg.RequestsPerSecond,
		burst:     float64(cfg.BurstSize),
		lastSweep: time.Now(),
	}
}

// take refills the caller's bucket for the elapsed time and spends one
// token. When the bucket is empty it reports false plus the whole seconds
// to wait before a token is available again.
func (l *ipLimiter) take(ip string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > staleAfter {
		for addr, b := range l.clients {
			if now.Sub(b.seen) > staleAfter {
				delete(l.clients, addr)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.clients[ip]
	if !ok {
		b = &clientBucket{tokens: l.burst, seen: now}
		l.clients[ip] = b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.seen).Seconds()*l.rate)
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := 1
	if l.rate > 0 {
		wait = int(math.Ceil((1 - b.tokens) / l.rate))
	}
	return false, wait
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	limiter := newIPLimiter(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, wait := limiter.take(c.RealIP(), time.Now())
			c.Response().Header().Set("X-RateLimit-Limit", limit)
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(wait))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
