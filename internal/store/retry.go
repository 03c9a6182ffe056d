package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"calendasync/internal/domain"
)

// RetryPolicy is the caller-side schedule for initial loads: MaxRetries attempts after
// the first, waiting InitialInterval and doubling up to MaxInterval.
type RetryPolicy struct {
	MaxRetries      uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy waits 1s, 2s, 4s.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: time.Second,
	MaxInterval:     10 * time.Second,
}

// FetchEventsWithRetry calls FetchEvents until it succeeds or the policy is exhausted.
// A missing session is not retried.
func (s *EventStore) FetchEventsWithRetry(ctx context.Context, policy RetryPolicy) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.FetchEvents(ctx)
		if errors.Is(err, domain.ErrUnauthenticated) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(policy.MaxRetries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.InfoContext(ctx, "retrying event fetch", "error", err, "wait", wait)
		}),
	)
	if err != nil && !errors.Is(err, domain.ErrUnauthenticated) && ctx.Err() == nil {
		s.notifier.Error(ctx, "Failed to load events after multiple attempts")
	}
	return err
}
