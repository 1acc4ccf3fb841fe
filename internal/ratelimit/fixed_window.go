// Package ratelimit throttles credential endpoints across server instances.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "bookstore:ratelimit"

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter limits requests per key in a fixed time window, with
// the counters kept in Redis. It satisfies echo's RateLimiterStore.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration

	client  *redis.Client
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewFixedWindowLimiter creates a Redis-backed limiter allowing limit requests per window.
func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &FixedWindowLimiter{
		limit:   limit,
		window:  window,
		client:  client,
		prefix:  prefix,
		timeout: 2 * time.Second,
		now:     time.Now,
	}, nil
}

// NewRedisClient creates the Redis client the limiter runs on.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Allow reports whether identifier is within quota. Redis failures are
// returned together with false, so callers fail closed.
func (l *FixedWindowLimiter) Allow(identifier string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		identifier = "unknown"
	}

	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	key := fmt.Sprintf("%s:%s:%d", l.prefix, identifier, slot)

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return count <= int64(l.limit), nil
}
