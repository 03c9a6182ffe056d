package signin

import (
	"context"
	"testing"
	"time"

	"calendasync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLockout(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	l := NewLockout(newMemKV())
	l.now = c.now

	for i := 0; i < MaxLoginFailures; i++ {
		require.NoError(t, l.Check(ctx), "attempt %d", i+1)
		require.NoError(t, l.RecordFailure(ctx))
		c.advance(time.Minute)
	}

	err := l.Check(ctx)
	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 29*time.Minute, rle.RetryAfter)
	assert.Equal(t, "Too many attempts. Please try again in 29 minutes.", err.Error())

	c.advance(29 * time.Minute)
	require.NoError(t, l.Check(ctx), "window elapsed since last failure")
	require.NoError(t, l.RecordFailure(ctx))
	require.NoError(t, l.Check(ctx), "counter restarted")
}

func TestLockout_ResetClearsFailures(t *testing.T) {
	ctx := context.Background()
	l := NewLockout(newMemKV())
	for i := 0; i < MaxLoginFailures; i++ {
		require.NoError(t, l.RecordFailure(ctx))
	}
	require.Error(t, l.Check(ctx))
	require.NoError(t, l.Reset(ctx))
	require.NoError(t, l.Check(ctx))
}

func TestResetLimiter(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	kv := newMemKV()
	r := NewResetLimiter(kv)
	r.now = c.now

	for i := 0; i < MaxResetRequests; i++ {
		require.NoError(t, r.Check(ctx))
		require.NoError(t, r.Record(ctx))
		c.advance(time.Minute)
	}
	assert.JSONEq(t, `{"count":3,"timestamp":`+itoa(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC).UnixMilli())+`}`, kv.m[domain.KeyPasswordResetAttempts])

	err := r.Check(ctx)
	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 2*time.Minute, rle.RetryAfter)

	c.advance(2*time.Minute + time.Second)
	require.NoError(t, r.Check(ctx))
	_, ok := kv.m[domain.KeyPasswordResetAttempts]
	assert.False(t, ok, "expired counter is removed")
}
