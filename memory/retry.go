package memory

import (
	"context"

	"github.com/cenkalti/backoff/v5"
)

// callProvider runs one external provider operation under the configured
// retry budget: bounded exponential backoff between attempts and a
// per-attempt timeout. Context cancellation aborts immediately with no
// further attempts.
func callProvider[T any](ctx context.Context, cfg ProviderConfig, op func(ctx context.Context) (T, error)) (T, error) {
	expo := backoff.NewExponentialBackOff()
	if cfg.InitialBackoff > 0 {
		expo.InitialInterval = cfg.InitialBackoff
	}

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return backoff.Retry(ctx, func() (T, error) {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}
		defer cancel()
		return op(attemptCtx)
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(uint(attempts)))
}
