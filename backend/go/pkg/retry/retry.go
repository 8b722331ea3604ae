package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds the retry policy for a single logical operation.
// AttemptTimeout bounds one attempt; MaxAttempts bounds the whole operation.
// The two knobs are independent.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt. The delay doubles
	// after every failed attempt (BaseDelay * 2^(attempt-1)).
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay. Zero means no cap.
	MaxDelay time.Duration
	// AttemptTimeout is the deadline applied to each individual attempt.
	// Zero means attempts run without their own deadline.
	AttemptTimeout time.Duration
}

// Error is returned when the retry budget is exhausted. It annotates the
// last failure with the number of attempts made.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// transient reports whether an error may be retried. Errors exposing a
// Transient() bool method decide for themselves; everything else counts as
// transient, so permanence must be proven by the caller tagging the error.
func transient(err error) bool {
	var te interface{ Transient() bool }
	if errors.As(err, &te) {
		return te.Transient()
	}
	return true
}

// Do executes op under cfg. Each attempt runs with its own deadline; failed
// transient attempts back off exponentially before the next try. The first
// success wins. Non-transient failures and a cancelled parent context stop
// the loop immediately. The final failure is always wrapped in *Error.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	made := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		made = attempt
		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.AttemptTimeout)
		}
		result, err := op(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !transient(err) {
			return zero, &Error{Attempts: attempt, Err: err}
		}
		if ctx.Err() != nil || attempt == attempts {
			break
		}

		delay := backoff(cfg, attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, &Error{Attempts: attempt, Err: lastErr}
		case <-timer.C:
		}
	}

	return zero, &Error{Attempts: made, Err: lastErr}
}

// backoff returns BaseDelay * 2^(attempt-1), capped at MaxDelay.
func backoff(cfg Config, attempt int) time.Duration {
	delay := cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if cfg.MaxDelay > 0 && delay >= cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
