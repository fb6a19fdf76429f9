package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterFallbackMode(t *testing.T) {
	// No Redis client: the limiter runs on the in-memory token bucket.
	config := Config{
		IPLimitPerMin:   5,
		BurstMultiplier: 1,
	}
	limiter := NewRateLimiter(nil, config)

	ctx := context.Background()
	ip := "203.0.113.10"

	// The burst capacity admits the first requests.
	for i := 0; i < 5; i++ {
		result, err := limiter.AllowIP(ctx, ip)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	result, err := limiter.AllowIP(ctx, ip)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "request over burst should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestRateLimiterIsolatesIPs(t *testing.T) {
	config := Config{
		IPLimitPerMin:   1,
		BurstMultiplier: 1,
	}
	limiter := NewRateLimiter(nil, config)
	ctx := context.Background()

	first, err := limiter.AllowIP(ctx, "203.0.113.10")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := limiter.AllowIP(ctx, "203.0.113.10")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := limiter.AllowIP(ctx, "203.0.113.20")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "a different IP keeps its own budget")
}
