package signin

import (
	"context"
	"time"

	"calendasync/internal/domain"
	"calendasync/internal/localstate"
)

// These limits live only in local state. Clearing it or switching clients resets them;
// the server does not enforce either. Password sign-in has no server-side counter at all.
// The server only caps guesses per emailed code (five, then the code is deleted and
// too_many_requests is returned) and keeps one live code per email and purpose.
const (
	MaxLoginFailures = 5
	LockoutWindow    = 30 * time.Minute

	MaxResetRequests = 3
	ResetWindow      = 5 * time.Minute
)

// attempts is the persisted counter shape. Timestamp is Unix milliseconds.
type attempts struct {
	Count     int   `json:"count"`
	Timestamp int64 `json:"timestamp"`
}

func loadAttempts(ctx context.Context, kv domain.KeyValueStore, key string) (attempts, bool, error) {
	var a attempts
	ok, err := localstate.GetJSON(ctx, kv, key, &a)
	return a, ok, err
}

// Lockout rejects password sign-in after MaxLoginFailures failures until LockoutWindow has
// passed since the most recent one.
type Lockout struct {
	kv  domain.KeyValueStore
	now func() time.Time
}

func NewLockout(kv domain.KeyValueStore) *Lockout {
	return &Lockout{kv: kv, now: time.Now}
}

// Check returns a *domain.RateLimitError while locked out.
func (l *Lockout) Check(ctx context.Context) error {
	a, ok, err := loadAttempts(ctx, l.kv, domain.KeyLoginAttempts)
	if err != nil || !ok {
		return err
	}
	elapsed := l.now().Sub(time.UnixMilli(a.Timestamp))
	if elapsed >= LockoutWindow {
		return l.kv.Delete(ctx, domain.KeyLoginAttempts)
	}
	if a.Count >= MaxLoginFailures {
		return &domain.RateLimitError{Reason: "Too many attempts", RetryAfter: LockoutWindow - elapsed}
	}
	return nil
}

// RecordFailure counts a failed attempt and restarts the window.
func (l *Lockout) RecordFailure(ctx context.Context) error {
	a, ok, err := loadAttempts(ctx, l.kv, domain.KeyLoginAttempts)
	if err != nil {
		return err
	}
	if !ok || l.now().Sub(time.UnixMilli(a.Timestamp)) >= LockoutWindow {
		a = attempts{}
	}
	a.Count++
	a.Timestamp = l.now().UnixMilli()
	return localstate.SetJSON(ctx, l.kv, domain.KeyLoginAttempts, a)
}

func (l *Lockout) Reset(ctx context.Context) error {
	return l.kv.Delete(ctx, domain.KeyLoginAttempts)
}

// ResetLimiter allows MaxResetRequests password reset requests per ResetWindow, counted
// from the first request of the window.
type ResetLimiter struct {
	kv  domain.KeyValueStore
	now func() time.Time
}

func NewResetLimiter(kv domain.KeyValueStore) *ResetLimiter {
	return &ResetLimiter{kv: kv, now: time.Now}
}

func (r *ResetLimiter) Check(ctx context.Context) error {
	a, ok, err := loadAttempts(ctx, r.kv, domain.KeyPasswordResetAttempts)
	if err != nil || !ok {
		return err
	}
	elapsed := r.now().Sub(time.UnixMilli(a.Timestamp))
	if elapsed > ResetWindow {
		return r.kv.Delete(ctx, domain.KeyPasswordResetAttempts)
	}
	if a.Count >= MaxResetRequests {
		return &domain.RateLimitError{Reason: "Too many reset attempts", RetryAfter: ResetWindow - elapsed}
	}
	return nil
}

func (r *ResetLimiter) Record(ctx context.Context) error {
	a, ok, err := loadAttempts(ctx, r.kv, domain.KeyPasswordResetAttempts)
	if err != nil {
		return err
	}
	if !ok {
		a = attempts{Timestamp: r.now().UnixMilli()}
	}
	a.Count++
	return localstate.SetJSON(ctx, r.kv, domain.KeyPasswordResetAttempts, a)
}
