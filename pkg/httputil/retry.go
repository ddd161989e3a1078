package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks an error as transient. [Backoff.Do] retries only
// errors carrying this type.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff describes a retry schedule. The delay doubles after each failed
// attempt and is capped at MaxDelay when that is positive.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultBackoff is three attempts starting at half a second.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. It returns the last error, or ctx.Err() if the context
// ends while waiting.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := range attempts {
		if lastErr = fn(); lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return lastErr
}

// IsRetryable reports whether err is wrapped in a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
