package openai

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// backoff returns the delay before the given retry attempt (1-based):
// exponential growth capped at maxDelay, with full jitter. A Retry-After
// hint takes precedence when it is within the cap.
func backoff(initial, maxDelay time.Duration, attempt int, err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 && apiErr.RetryAfter <= maxDelay {
		return apiErr.RetryAfter
	}

	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			delay = maxDelay
			break
		}
	}
	return time.Duration(rand.Int64N(int64(delay) + 1)) // #nosec G404 -- jitter
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
