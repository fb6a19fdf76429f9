package redisclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis client with health checks and graceful degradation.
// When Redis is not configured, consumers fall back to in-process state.
type Client struct {
	client  *redis.Client
	enabled bool
	addr    string
}

// New creates a Redis client with connection pooling. An empty addr yields
// a disabled client rather than an error.
func New(addr, password string, db int) (*Client, error) {
	if addr == "" {
		slog.Warn("Redis not configured, scope locks and rate limiting will use in-process fallback")
		return &Client{enabled: false}, nil
	}

	slog.Info("Initializing Redis client", "addr", addr, "db", db)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Redis ping failed, falling back to in-process state", "error", err)
		return &Client{enabled: false, addr: addr}, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Info("Redis client connected successfully", "addr", addr)

	return &Client{
		client:  client,
		enabled: true,
		addr:    addr,
	}, nil
}

// Get returns the underlying Redis client
func (c *Client) Get() *redis.Client {
	return c.client
}

// IsEnabled returns whether Redis is enabled and healthy
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// HealthCheck performs a health check on the Redis connection
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.enabled {
		return fmt.Errorf("redis is disabled")
	}

	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.enabled && c.client != nil {
		slog.Info("Closing Redis client connection")
		return c.client.Close()
	}
	return nil
}
