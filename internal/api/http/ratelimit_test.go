package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestIPRateLimiterEvictsIdleBuckets(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(rate.Every(time.Second), 1)
	limiter.now = func() time.Time { return clock }

	first := limiter.GetLimiter("10.0.0.1")
	limiter.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, limiter.Len())
	assert.Same(t, first, limiter.GetLimiter("10.0.0.1"))

	clock = clock.Add(8 * time.Minute)
	limiter.GetLimiter("10.0.0.1")

	clock = clock.Add(4 * time.Minute)
	limiter.GetLimiter("10.0.0.3")
	assert.Equal(t, 2, limiter.Len(), "10.0.0.2 idle past the ttl is dropped")
	assert.Same(t, first, limiter.GetLimiter("10.0.0.1"))

	clock = clock.Add(defaultLimiterIdleTTL + time.Minute)
	assert.NotSame(t, first, limiter.GetLimiter("10.0.0.1"))
	assert.Equal(t, 1, limiter.Len())
}
