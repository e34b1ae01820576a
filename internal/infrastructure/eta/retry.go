package eta

import (
	"context"
	"time"
)

// RetryPolicy drives every outbound call to the authority: up to MaxAttempts
// tries with exponential backoff between them (BaseDelay * 2^attempt). The
// attempt counter belongs to one logical operation; it is never shared across
// endpoints. Implemented once and reused by all client operations.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy mirrors the sandbox defaults: 3 attempts, 2 s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second}
}

// Do runs fn up to MaxAttempts times, sleeping between attempts, and stops
// early when fn succeeds or returns an outcome the predicate rejects. The
// backoff sleep honours ctx so one stuck submission cannot block others.
// The error of the final attempt is returned as-is (with the last response
// body attached when it is an *APIError).
func (p RetryPolicy) Do(ctx context.Context, isRetryable func(error) bool, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if sleepErr := sleep(ctx, p.delay(attempt-1)); sleepErr != nil {
				// Caller gave up while backing off; report the last outcome.
				if err != nil {
					return err
				}
				return sleepErr
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
	}
	return err
}

// delay returns the backoff before retry number attempt+1.
func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	return base << uint(attempt)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
