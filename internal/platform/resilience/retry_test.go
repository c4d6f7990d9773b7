package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestRetry_TransientThenSuccess(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	policy := Retry{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		Jitter:      func(d time.Duration) time.Duration { return d },
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: connection reset", ErrTransient)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("unexpected backoff sequence: %v", slept)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	policy := Retry{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Jitter:      func(d time.Duration) time.Duration { return d },
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("%w: status=503", ErrTransient)
	})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetry_StopsOnFatalError(t *testing.T) {
	t.Parallel()

	policy := Retry{
		MaxAttempts: 5,
		Sleep: func(context.Context, time.Duration) error {
			t.Fatal("sleep should not be called for fatal errors")
			return nil
		},
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("status=404")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one attempt with error, got calls=%d err=%v", calls, err)
	}
}

func TestRetry_MaxDelayCap(t *testing.T) {
	t.Parallel()

	policy := Retry{
		BaseDelay: time.Second,
		MaxDelay:  3 * time.Second,
		Jitter:    func(d time.Duration) time.Duration { return d },
	}

	if got := policy.backoff(4); got != 3*time.Second {
		t.Fatalf("expected capped delay 3s, got %s", got)
	}
}

func TestRetry_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := Retry{MaxAttempts: 3}
	err := policy.Do(ctx, func() error { return nil })
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
