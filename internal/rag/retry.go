package rag

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy retries transient retrieval and completion failures.
// MaxAttempts <= 1 disables retrying.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.Backoff
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = time.Minute
	// bounded by attempts, not by wall clock
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
}

// do runs fn until it succeeds, returns a non-transient error, or the
// attempts run out. The error returned is always the last one fn produced.
func (p RetryPolicy) do(ctx context.Context, logger *zap.Logger, op string, fn func(context.Context) error) error {
	var (
		lastErr error
		attempt int
	)
	operation := func() error {
		attempt++
		lastErr = fn(ctx)
		if lastErr != nil && !retryable(lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("transient failure, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, p.backOff(ctx), notify); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

func retryable(err error) bool {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Transient
	}
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Transient
	}
	return false
}
