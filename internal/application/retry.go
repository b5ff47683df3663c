package application

import (
	"context"
	"fmt"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"
)

// RetryPolicy bounds the retries of a whole refresh cycle.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// withRetry runs fn until it succeeds, fails with a non-transient error or the
// attempts are exhausted, doubling the backoff between attempts up to
// MaxBackoff. It returns the number of attempts made.
func withRetry(ctx context.Context, p RetryPolicy, desc string, fn func(context.Context) error) (int, error) {
	maxAttempts := p.attempts()
	backoff := p.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if !domain.IsTransient(lastErr) {
			return attempt, lastErr
		}
		if attempt == maxAttempts {
			break
		}

		utils.Logger.Warn("retrying after transient error",
			"operation", desc,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff", backoff,
			"err", lastErr,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("%s: %w (last error: %w)", desc, ctx.Err(), lastErr)
		case <-timer.C:
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return maxAttempts, fmt.Errorf("%s: %d attempts exhausted: %w", desc, maxAttempts, lastErr)
}
