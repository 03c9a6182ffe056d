package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"calendasync/internal/conflict"
	"calendasync/internal/domain"
)

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct {
	salt string
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) { return f.salt, nil }
func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + salt + "-" + password, nil
}
func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+"-"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID, nil
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	byEmail   map[string]*domain.User
	getErr    error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserRepo) add(u *domain.User) {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	u.ID = "user-" + strconv.Itoa(len(f.byID)+1)
	f.add(u)
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	old, ok := f.byID[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if existing, ok := f.byEmail[u.Email]; ok && existing.ID != u.ID {
		return domain.ErrDuplicateEmail
	}
	delete(f.byEmail, old.Email)
	f.add(u)
	return nil
}

type storedCode struct {
	email     string
	purpose   domain.CodePurpose
	hash      string
	expiresAt time.Time
	attempts  int
}

// fakeCodeRepo implements domain.OneTimeCodeRepository for tests.
type fakeCodeRepo struct {
	codes []storedCode
	now   time.Time
}

func (f *fakeCodeRepo) Create(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, expiresAt time.Time) error {
	kept := f.codes[:0]
	for _, c := range f.codes {
		if c.email != email || c.purpose != purpose {
			kept = append(kept, c)
		}
	}
	f.codes = append(kept, storedCode{email: email, purpose: purpose, hash: codeHash, expiresAt: expiresAt})
	return nil
}

func (f *fakeCodeRepo) Consume(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, maxAttempts int) (bool, error) {
	for i := range f.codes {
		c := &f.codes[i]
		if c.email != email || c.purpose != purpose || !c.expiresAt.After(f.now) {
			continue
		}
		c.attempts++
		matched, exhausted := c.hash == codeHash, c.attempts >= maxAttempts
		if matched || exhausted {
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
		}
		if !matched && exhausted {
			return false, domain.ErrRateLimited
		}
		return matched, nil
	}
	return false, nil
}

func (f *fakeCodeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	kept := f.codes[:0]
	var n int64
	for _, c := range f.codes {
		if c.expiresAt.After(now) {
			kept = append(kept, c)
		} else {
			n++
		}
	}
	f.codes = kept
	return n, nil
}

// fakeEmailService records the codes it was asked to send.
type fakeEmailService struct {
	login    []*domain.CodeEmailData
	recovery []*domain.CodeEmailData
	err      error
}

func (f *fakeEmailService) SendLoginCode(ctx context.Context, data *domain.CodeEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.login = append(f.login, data)
	return nil
}

func (f *fakeEmailService) SendPasswordResetCode(ctx context.Context, data *domain.CodeEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.recovery = append(f.recovery, data)
	return nil
}

// fakeEventRepo is an in-memory domain.EventRepository that enforces the no-overlap rule like the database.
type fakeEventRepo struct {
	mu      sync.Mutex
	events  map[string]*domain.Event
	seq     int
	listErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*domain.Event)}
}

func (f *fakeEventRepo) overlapsOther(e *domain.Event) bool {
	for _, o := range f.events {
		if o.UserID == e.UserID && o.ID != e.ID && conflict.Overlaps(e.StartTime, e.EndTime, o.StartTime, o.EndTime) {
			return true
		}
	}
	return false
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overlapsOther(e) {
		return domain.ErrConflict
	}
	f.seq++
	e.ID = "ev-" + strconv.Itoa(f.seq)
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, userID, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) List(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*domain.Event{}
	for _, e := range f.events {
		if e.UserID != userID || e.ID == filter.ExcludeID {
			continue
		}
		if filter.OverlapStart != nil && !conflict.Overlaps(*filter.OverlapStart, *filter.OverlapEnd, e.StartTime, e.EndTime) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.events[e.ID]
	if !ok || old.UserID != e.UserID {
		return domain.ErrNotFound
	}
	if f.overlapsOther(e) {
		return domain.ErrConflict
	}
	e.CreatedAt = old.CreatedAt
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	return nil
}
