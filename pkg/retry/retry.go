// Package retry runs an operation again with capped exponential backoff.
// It is used around the timetable feed and the Telegram Bot API.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Policy describes how often and how long to retry.
type Policy struct {
	// Attempts is the total number of calls, the first one included.
	Attempts int

	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Jitter is the relative spread applied to every delay (0..1).
	Jitter float64

	// ShouldRetry reports whether err is transient. Nil means "never".
	ShouldRetry func(err error) bool

	// OnRetry observes each scheduled retry.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Waiter is implemented by errors that know how long the caller must back
// off, such as an HTTP 429 with Retry-After.
type Waiter interface {
	RetryAfter() time.Duration
}

type stopError struct{ err error }

func (e stopError) Error() string { return e.err.Error() }
func (e stopError) Unwrap() error { return e.err }

// Stop marks err as final so Do returns it without consulting ShouldRetry.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return stopError{err: err}
}

// FeedPolicy is tuned for the university timetable API.
func FeedPolicy(attempts int, base, max time.Duration, shouldRetry func(error) bool) Policy {
	return Policy{
		Attempts:    attempts,
		BaseDelay:   base,
		MaxDelay:    max,
		Jitter:      0.2,
		ShouldRetry: shouldRetry,
	}
}

// TelegramPolicy is tuned for Bot API calls.
func TelegramPolicy(shouldRetry func(error) bool) Policy {
	return Policy{
		Attempts:    4,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.1,
		ShouldRetry: shouldRetry,
	}
}

// Do calls op until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is done. The last operation error is returned.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := max(p.Attempts, 1)

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		var stop stopError
		if errors.As(err, &stop) {
			return zero, stop.err
		}
		lastErr = err

		if attempt == attempts || p.ShouldRetry == nil || !p.ShouldRetry(err) {
			return zero, err
		}

		wait := p.Delay(attempt)
		var w Waiter
		if errors.As(err, &w) && w.RetryAfter() > wait {
			wait = w.RetryAfter()
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
