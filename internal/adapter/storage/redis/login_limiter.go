package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// LoginLimiter implements ports.LoginLimiter with a per-name failure counter.
// The counter expires window after the first failure, so a locked name
// unlocks on its own.
type LoginLimiter struct {
	client      *goredis.Client
	prefix      string
	maxFailures int64
	window      time.Duration
}

// NewLoginLimiter creates a limiter that locks a name after maxFailures
// failed logins within window.
func NewLoginLimiter(client *goredis.Client, maxFailures int64, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		client:      client,
		prefix:      "loginfail:",
		maxFailures: maxFailures,
		window:      window,
	}
}

// Locked reports whether name has reached maxFailures in the current window.
func (l *LoginLimiter) Locked(ctx context.Context, name string) (bool, error) {
	if l.maxFailures <= 0 {
		return false, nil
	}
	count, err := l.client.Get(ctx, l.key(name)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis login limiter get: %w", err)
	}
	return count >= l.maxFailures, nil
}

// RecordFailure counts one failed login for name.
func (l *LoginLimiter) RecordFailure(ctx context.Context, name string) error {
	key := l.key(name)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis login limiter incr: %w", err)
	}

	// Expiry is set only on the first failure so the window does not slide.
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("redis login limiter expire: %w", err)
		}
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, name string) error {
	if err := l.client.Del(ctx, l.key(name)).Err(); err != nil {
		return fmt.Errorf("redis login limiter del: %w", err)
	}
	return nil
}

func (l *LoginLimiter) key(name string) string {
	return l.prefix + name
}
