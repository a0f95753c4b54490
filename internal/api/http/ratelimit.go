package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

const defaultLimiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
// Buckets idle for longer than idleTTL are dropped on the next sweep.
type IPRateLimiter struct {
	ips       map[string]*visitor
	mu        sync.Mutex
	r         rate.Limit
	b         int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows r events per second with bursts of b per IP.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:     make(map[string]*visitor),
		r:       r,
		b:       b,
		idleTTL: defaultLimiterIdleTTL,
		now:     time.Now,
	}
}

// GetLimiter returns the bucket for key, creating it on first use.
func (i *IPRateLimiter) GetLimiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) >= i.idleTTL {
		i.sweepLocked(now)
	}

	v, exists := i.ips[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Len reports how many buckets are tracked.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

func (i *IPRateLimiter) sweepLocked(now time.Time) {
	for key, v := range i.ips {
		if now.Sub(v.lastSeen) >= i.idleTTL {
			delete(i.ips, key)
		}
	}
	i.lastSweep = now
}

// RateLimitByIP rejects callers that exhaust their bucket with 429.
func RateLimitByIP(limiter *IPRateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.GetLimiter(c.IP()).Allow() {
			return apperrors.NewRateLimited("Too many requests from this IP, please try again later")
		}
		return c.Next()
	}
}
