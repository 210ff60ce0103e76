package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/logger"
)

// backoffDelay returns the delay before retry attempt n (1-based):
// base doubled per attempt, with half-open jitter so concurrent retries
// spread out. The result is always in [exp/2, exp) for exp = base<<(n-1).
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := base << (attempt - 1)
	half := exp / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
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

// retryCall invokes fn until it succeeds, fails fatally, or exhausts the
// transient budget. Rate-limit waits honour the mandated delay and are not
// counted against the budget. Exhausting the budget converts the last
// transient failure into a fatal error for this call.
func retryCall(ctx context.Context, cfg domain.SyncConfig, op string, fn func() error) error {
	attempts := 0
	for {
		err := fn()
		if err == nil {
			return nil
		}

		if delay, ok := domain.IsRateLimited(err); ok {
			logger.Debug("%s: rate limited, waiting %s", op, delay)
			if err := sleepCtx(ctx, delay); err != nil {
				return &domain.FatalError{Cause: err}
			}
			continue
		}

		if domain.IsTransient(err) {
			attempts++
			if attempts > cfg.MaxRetries {
				return &domain.FatalError{
					Cause: fmt.Errorf("%s: %d retries exhausted: %w", op, cfg.MaxRetries, err),
				}
			}
			delay := backoffDelay(cfg.RetryDelay, attempts)
			logger.Debug("%s: transient failure (attempt %d/%d), retrying in %s: %v",
				op, attempts, cfg.MaxRetries, delay, err)
			if err := sleepCtx(ctx, delay); err != nil {
				return &domain.FatalError{Cause: err}
			}
			continue
		}

		// Fatal or unclassified: never retried.
		return err
	}
}
