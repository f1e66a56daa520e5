// Package ratelimit implements a fixed-window request counter backed by
// Redis. Counters are shared across process instances, so the limits hold
// when several publisher workers or API replicas run concurrently.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the counter store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the action to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the action if Redis is unavailable.
	FailClosed
)

// Limiter enforces a fixed-window limit per (resource, id) key. Window
// boundaries come from the key TTL: the first INCR of a window sets the
// expiry, later increments reuse it.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	policy FailPolicy
}

// New creates a Limiter with the given limit per window.
func New(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy) *Limiter {
	return &Limiter{rdb: rdb, limit: limit, window: window, policy: policy}
}

// Allow reports whether another action for (resource, id) fits in the
// current window. The error is non-nil only for store failures; callers that
// pass FailOpen never see those because the limiter absorbs them.
func (l *Limiter) Allow(ctx context.Context, resource, id string) (bool, error) {
	if l.rdb == nil {
		if l.policy == FailClosed {
			return false, fmt.Errorf("rate limit store unavailable")
		}
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		if l.policy == FailClosed {
			return false, fmt.Errorf("rate limit store error: %w", err)
		}
		return true, nil
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, l.window)
	}
	return cnt <= int64(l.limit), nil
}

// Remaining returns how many actions are left in the current window.
// Best-effort: store failures report the full limit.
func (l *Limiter) Remaining(ctx context.Context, resource, id string) int {
	if l.rdb == nil {
		return l.limit
	}
	key := fmt.Sprintf("rl:%s:%s", resource, id)
	cnt, err := l.rdb.Get(ctx, key).Int64()
	if err != nil {
		return l.limit
	}
	remaining := l.limit - int(cnt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
