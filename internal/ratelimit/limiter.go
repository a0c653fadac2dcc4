// Package ratelimit throttles requests with fixed windows kept in Redis, so
// every API instance shares the same counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule allows Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result contains the result of a rate limit check.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the next request.
// Returns 0 if the request was allowed.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Limiter handles rate limiting using Redis
type Limiter struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewLimiter(client redis.Cmdable) *Limiter {
	return &Limiter{client: client, now: time.Now}
}

func windowKey(purpose, key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, key)
}

func cooldownKey(purpose, key string) string {
	return fmt.Sprintf("cooldown:%s:%s", purpose, key)
}

// Allow records one request for key and reports whether it fits in the
// current window. The window starts with the first request.
func (l *Limiter) Allow(ctx context.Context, purpose, key string, rule Rule) (Result, error) {
	k := windowKey(purpose, key)

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, rule.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	if ttl < 0 {
		// counter lost its expiry, start a fresh window
		if err := l.client.Expire(ctx, k, rule.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
		ttl = rule.Window
	}

	return Result{
		Limit:     rule.Limit,
		Remaining: rule.Limit - int(count),
		ResetAt:   l.now().Add(ttl),
	}, nil
}

// Cooldown reports whether key is still cooling down for purpose, and starts
// a cooldown of d if it is not.
func (l *Limiter) Cooldown(ctx context.Context, purpose, key string, d time.Duration) (bool, error) {
	set, err := l.client.SetNX(ctx, cooldownKey(purpose, key), 1, d).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set cooldown: %w", err)
	}
	return !set, nil
}

// ClearCooldown ends a cooldown early, for requests that did not get to do
// the work the cooldown protects.
func (l *Limiter) ClearCooldown(ctx context.Context, purpose, key string) error {
	if err := l.client.Del(ctx, cooldownKey(purpose, key)).Err(); err != nil {
		return fmt.Errorf("failed to clear cooldown: %w", err)
	}
	return nil
}
