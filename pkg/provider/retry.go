package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
)

// withRetry runs op up to maxAttempts total times using exponential
// backoff (base 2s, cap 10s), retrying only on errors apperrors classifies
// as retryable (ProviderRateLimited, ProviderTimeout, ProviderUnavailable).
// Any other error, or exhaustion of maxAttempts, is returned as-is.
func withRetry(ctx context.Context, maxAttempts int, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 10 * time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0

	bounded := backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	withCtx := backoff.WithContext(bounded, ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !apperrors.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, withCtx)
}
