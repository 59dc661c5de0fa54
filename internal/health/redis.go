// Package health provides health check implementations for external dependencies.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTimeout bounds a single PING when the caller's context has no
// earlier deadline.
const DefaultRedisTimeout = 2 * time.Second

// RedisChecker implements health checking for Redis.
type RedisChecker struct {
	client  redis.Cmdable
	timeout time.Duration
}

// NewRedisChecker creates a new Redis health checker. A zero timeout uses
// DefaultRedisTimeout.
func NewRedisChecker(client redis.Cmdable, timeout time.Duration) *RedisChecker {
	if timeout <= 0 {
		timeout = DefaultRedisTimeout
	}
	return &RedisChecker{
		client:  client,
		timeout: timeout,
	}
}

// HealthCheck performs a health check on Redis by sending a PING command.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
