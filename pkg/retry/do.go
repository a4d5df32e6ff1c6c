// Package retry provides a small retry helper with configurable backoff,
// context cancellation, and retry conditions.
package retry

import (
	"context"
	"errors"
	"time"
)

// Func defines a retryable function. It must respect the provided context.
type Func func(ctx context.Context) error

// RetryIf determines whether an error should trigger a retry.
type RetryIf func(error) bool

// Backoff defines how long to wait before the next retry.
// attempt starts from 0 (first retry after the first failure).
type Backoff interface {
	Next(attempt int) time.Duration
}

type fixedBackoff struct {
	interval time.Duration
}

func (b fixedBackoff) Next(int) time.Duration {
	return b.interval
}

// Fixed returns a fixed backoff strategy.
func Fixed(interval time.Duration) Backoff {
	return fixedBackoff{interval: interval}
}

type exponentialBackoff struct {
	base time.Duration
	max  time.Duration
}

func (b exponentialBackoff) Next(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	d := b.base * time.Duration(1<<uint(attempt))
	if b.max > 0 && d > b.max {
		return b.max
	}
	return d
}

// Exponential returns an exponential backoff strategy capped at max.
func Exponential(base, max time.Duration) Backoff {
	return exponentialBackoff{base: base, max: max}
}

type options struct {
	maxAttempts int
	backoff     Backoff
	retryIf     RetryIf
}

// Option configures Do.
type Option func(*options)

// WithMaxAttempts limits the total number of attempts. Zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// WithBackoff sets the backoff strategy between attempts.
func WithBackoff(b Backoff) Option {
	return func(o *options) { o.backoff = b }
}

// WithRetryIf sets the retry condition. A false return stops immediately.
func WithRetryIf(f RetryIf) Option {
	return func(o *options) { o.retryIf = f }
}

// Do runs f until it succeeds, the retry condition rejects the error,
// the attempt limit is reached, or the context is canceled.
// The last error is returned on failure.
func Do(ctx context.Context, f Func, opts ...Option) error {
	o := options{
		maxAttempts: 3,
		backoff:     Fixed(100 * time.Millisecond),
	}
	for _, opt := range opts {
		opt(&o)
	}

	var lastErr error
	for attempt := 0; o.maxAttempts == 0 || attempt < o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = f(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if o.retryIf != nil && !o.retryIf(lastErr) {
			return lastErr
		}
		if o.maxAttempts != 0 && attempt == o.maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.backoff.Next(attempt)):
		}
	}
	return lastErr
}
