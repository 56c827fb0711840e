// Package retry implements a retry policy value object with exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted wraps the last error after the attempt cap is reached.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy describes how an operation is retried. Retryable decides whether an
// error consumes retry budget; errors it rejects surface immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// Default returns a conservative policy suited to rate-limited backends.
func Default(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Retryable:   retryable,
	}
}

// Delay returns the backoff delay before the given attempt (1-based).
// The delay doubles per attempt and is capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn, retrying on errors accepted by the Retryable predicate with
// exponential backoff between attempts. Non-retryable errors and context
// cancellation return immediately. Once MaxAttempts is reached, the last
// error is returned wrapped in ErrAttemptsExhausted.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var last error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}

		if p.Retryable == nil || !p.Retryable(last) {
			return last
		}

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}

	return errors.Join(ErrAttemptsExhausted, last)
}
