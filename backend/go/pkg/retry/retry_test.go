package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type taggedError struct {
	transient bool
}

func (e *taggedError) Error() string   { return fmt.Sprintf("tagged (transient=%v)", e.transient) }
func (e *taggedError) Transient() bool { return e.transient }

func TestDoFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Config{MaxAttempts: 3}, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want %q", got, "ok")
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, &taggedError{transient: true}
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 0, &taggedError{transient: true}
	})
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("error %T is not *Error", err)
	}
	if rerr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", rerr.Attempts)
	}
}

func TestDoStopsOnNonTransient(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{MaxAttempts: 5, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 0, &taggedError{transient: false}
	})
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("error %T is not *Error", err)
	}
	if rerr.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", rerr.Attempts)
	}
	var tagged *taggedError
	if !errors.As(err, &tagged) {
		t.Error("wrapped error lost the original cause")
	}
}

func TestDoUntaggedErrorsAreRetried(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{MaxAttempts: 2, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("plain failure")
	})
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDoAttemptTimeout(t *testing.T) {
	cfg := Config{MaxAttempts: 1, AttemptTimeout: 10 * time.Millisecond}
	_, err := Do(context.Background(), cfg, func(ctx context.Context) (int, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Fatal("attempt context has no deadline")
		}
		if remaining := time.Until(deadline); remaining > cfg.AttemptTimeout {
			t.Errorf("deadline %v further out than attempt timeout %v", remaining, cfg.AttemptTimeout)
		}
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestDoCancelledContextStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	_, err := Do(ctx, Config{MaxAttempts: 5, BaseDelay: time.Hour}, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, &taggedError{transient: true}
	})
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v, backoff was not interrupted", elapsed)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 300 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := backoff(cfg, tc.attempt); got != tc.want {
			t.Errorf("backoff(attempt=%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
