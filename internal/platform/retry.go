package platform

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"ampcast/internal/observability"
)

// RetryPolicy retries an adapter invocation on transient failures only.
// The same policy wraps every adapter, so per-platform retry branching never
// creeps back into the adapters themselves.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy matches the publisher defaults: three attempts with
// exponential backoff starting at 250ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// Do runs fn up to Attempts times. Only errors classified as retryable
// (*Error with KindUnavailable) trigger another attempt; anything else is
// returned immediately. Backoff doubles per attempt with up to 50% jitter.
func (p RetryPolicy) Do(ctx context.Context, platformName string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			observability.AdapterRetries.WithLabelValues(platformName).Inc()
			select {
			case <-time.After(p.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}

		var perr *Error
		if !errors.As(err, &perr) || !perr.Retryable() {
			return err
		}
	}
	return err
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	delay := base << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	// Jitter spreads concurrent workers hitting the same platform window.
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	return delay + jitter
}
