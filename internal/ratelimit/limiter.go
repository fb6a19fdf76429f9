package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/kolmetry/kolmetry/internal/redisclient"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimitPerMin   int // IP-based rate limit per minute
	BurstMultiplier int // Burst capacity multiplier
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:   120,
		BurstMultiplier: 2,
	}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter provides distributed rate limiting with Redis and in-memory fallback
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *redisclient.Client
	config       Config

	fallbackLimiters map[string]*rate.Limiter
	fallbackMutex    sync.RWMutex
}

// NewRateLimiter creates a new rate limiter with Redis and in-memory fallback
func NewRateLimiter(redisClient *redisclient.Client, config Config) *RateLimiter {
	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		fallbackLimiters: make(map[string]*rate.Limiter),
	}

	if redisClient != nil && redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.Get())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	go rl.cleanupFallbackLimiters()

	return rl
}

// AllowIP checks if an IP address is allowed to make a request
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	limit := rl.config.IPLimitPerMin

	if rl.redisLimiter != nil {
		key := fmt.Sprintf("ratelimit:ip:%s", ip)
		res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.PerMinute(limit))
		if err == nil {
			return &Result{
				Allowed:    res.Allowed > 0,
				Limit:      limit,
				Remaining:  res.Remaining,
				RetryAfter: res.RetryAfter,
			}, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "error", err)
	}

	return rl.allowFallback(ip, limit), nil
}

// allowFallback applies the in-memory token bucket for an IP
func (rl *RateLimiter) allowFallback(ip string, limit int) *Result {
	rl.fallbackMutex.Lock()
	limiter, exists := rl.fallbackLimiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(float64(limit)/60.0), limit*rl.config.BurstMultiplier)
		rl.fallbackLimiters[ip] = limiter
	}
	rl.fallbackMutex.Unlock()

	if limiter.Allow() {
		return &Result{Allowed: true, Limit: limit, Remaining: int(limiter.Tokens())}
	}

	return &Result{Allowed: false, Limit: limit, RetryAfter: time.Second}
}

// cleanupFallbackLimiters periodically drops idle in-memory limiters
func (rl *RateLimiter) cleanupFallbackLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.fallbackMutex.Lock()
		rl.fallbackLimiters = make(map[string]*rate.Limiter)
		rl.fallbackMutex.Unlock()
	}
}
