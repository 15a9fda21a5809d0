package shared

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy describes bounded exponential backoff applied at a collaborator boundary.
//
// The n-th wait is BaseDelay * 2^(n-1), capped at MaxDelay. Only errors accepted by Retryable are retried;
// anything else is returned unchanged on first occurrence.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool

	// OnRetry is called before each wait, with the attempt that just failed.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// NewRetryPolicy builds a [RetryPolicy] that retries [IsTransient] errors.
func NewRetryPolicy(attempts int, base, maxDelay time.Duration) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: base, MaxDelay: maxDelay, Retryable: IsTransient}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	wait := p.BaseDelay
	for i := 1; i < attempt; i++ {
		wait *= 2
		if p.MaxDelay > 0 && wait >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && wait > p.MaxDelay {
		return p.MaxDelay
	}
	return wait
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts run out or ctx is done.
//
// Exhaustion is reported as [ErrRetriesExhausted] with the last error flattened into the message,
// so the result no longer matches [ErrTransient].
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, lastErr)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, lastErr)
}
