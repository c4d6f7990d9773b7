package resilience

import (
	"context"
	"math/rand"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// ErrTransient marks failures that are worth retrying. Callers wrap with
// fmt.Errorf("%w: ...", resilience.ErrTransient) and Retry.Do classifies on it.
var ErrTransient = crerr.New("transient failure")

func IsTransient(err error) bool {
	return crerr.Is(err, ErrTransient)
}

// Retry is a bounded exponential-backoff policy. Sleep and Jitter are
// injectable so tests can run with a deterministic clock.
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      func(time.Duration) time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

func DefaultRetry() Retry {
	return Retry{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Do runs op until it succeeds, returns a non-transient error, or the attempt
// budget is exhausted. The last error is returned as-is so callers keep the
// full failure context.
func (r Retry) Do(ctx context.Context, op func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		if err := r.sleep(ctx, r.backoff(attempt)); err != nil {
			return err
		}
	}

	return lastErr
}

func (r Retry) backoff(attempt int) time.Duration {
	base := r.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	delay := base << uint(attempt)
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		delay = r.MaxDelay
	}

	jitter := r.Jitter
	if jitter == nil {
		jitter = defaultJitter
	}

	delay = jitter(delay)
	if delay < 0 {
		delay = 0
	}
	return delay
}

func (r Retry) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d or until ctx is cancelled.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// defaultJitter spreads the delay within ±25% so synchronized clients do not
// hammer the upstream in lockstep.
func defaultJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	span := int64(d) / 2
	if span <= 0 {
		return d
	}
	return d - time.Duration(span/2) + time.Duration(rand.Int63n(span))
}
