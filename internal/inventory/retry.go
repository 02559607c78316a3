package inventory

import (
	"context"
	"log/slog"
	"time"

	"github.com/erazemk/gudang/internal/apperr"
)

// RetryPolicy bounds retries of operations that failed because the backend
// was unreachable. Other failures are returned immediately.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy tries three times, waiting 200ms then 400ms.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 200 * time.Millisecond}

// NoRetry makes a single attempt.
var NoRetry = RetryPolicy{Attempts: 1}

func retryValue[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(p.Attempts, 1)
	wait := p.Backoff

	var (
		v   T
		err error
	)
	for attempt := 1; ; attempt++ {
		v, err = fn(ctx)
		if err == nil || !apperr.Retryable(err) || attempt >= attempts {
			return v, err
		}

		slog.Warn("backend unreachable, retrying", "attempt", attempt, "wait", wait, "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return v, err
		case <-t.C:
		}
		wait *= 2
	}
}

func retry(ctx context.Context, p RetryPolicy, fn func(context.Context) error) error {
	_, err := retryValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
