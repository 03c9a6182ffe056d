package store

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

var errOffline = errors.New("network unreachable")

// fakeGateway keeps events in memory and enforces ownership like the API.
type fakeGateway struct {
	mu          sync.Mutex
	user        *domain.User
	events      map[string]*domain.Event
	seq         int
	listErr     error
	failLists   int
	listCalls   int
	insertCalls int

	// userErr fails CurrentUser while sessionUserID still names the token owner, as when offline.
	userErr       error
	sessionUserID string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		user:   &domain.User{ID: "user-1", Email: "alice@example.com"},
		events: map[string]*domain.Event{},
	}
}

func (g *fakeGateway) seed(e *domain.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	e.ID = "ev-" + strconv.Itoa(g.seq)
	g.events[e.ID] = e
}

func (g *fakeGateway) SignUp(context.Context, string, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (g *fakeGateway) SignIn(context.Context, string, string) (*domain.Session, error) {
	return nil, errors.New("not implemented")
}
func (g *fakeGateway) SignOut(context.Context) error               { return nil }
func (g *fakeGateway) RequestOTP(context.Context, string) error    { return nil }
func (g *fakeGateway) ResetPassword(context.Context, string) error { return nil }
func (g *fakeGateway) VerifyOTP(context.Context, string, string) (*domain.Session, error) {
	return nil, errors.New("not implemented")
}
func (g *fakeGateway) ConfirmPasswordReset(context.Context, string, string, string) error {
	return nil
}
func (g *fakeGateway) UpdateUser(context.Context, domain.UserPatch) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) CurrentUser(context.Context) (*domain.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.userErr != nil {
		return nil, g.userErr
	}
	if g.user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return g.user, nil
}

func (g *fakeGateway) SessionUserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessionUserID != "" {
		return g.sessionUserID
	}
	if g.user == nil {
		return ""
	}
	return g.user.ID
}

func (g *fakeGateway) ListEvents(_ context.Context, userID string, f domain.EventFilter) ([]*domain.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	if g.failLists > 0 {
		g.failLists--
		return nil, errOffline
	}
	out := []*domain.Event{}
	for _, e := range g.events {
		if e.UserID != userID || e.ID == f.ExcludeID {
			continue
		}
		if f.OverlapStart != nil && !conflict.Overlaps(*f.OverlapStart, *f.OverlapEnd, e.StartTime, e.EndTime) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (g *fakeGateway) GetEvent(_ context.Context, userID, id string) (*domain.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.events[id]
	if !ok || e.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (g *fakeGateway) InsertEvent(_ context.Context, userID string, in domain.EventInput) (*domain.Event, error) {
	g.mu.Lock()
	g.insertCalls++
	g.mu.Unlock()
	e := domain.NewEvent(userID, in, time.Now(), time.Now())
	g.seed(e)
	return e, nil
}

func (g *fakeGateway) UpdateEvent(_ context.Context, userID, id string, in domain.EventInput) (*domain.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.events[id]
	if !ok || e.UserID != userID {
		return nil, domain.ErrNotFound
	}
	e.Title, e.Description, e.StartTime, e.EndTime = in.Title, in.Description, in.StartTime, in.EndTime
	return e, nil
}

func (g *fakeGateway) DeleteEvent(_ context.Context, userID, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.events[id]
	if !ok || e.UserID != userID {
		return domain.ErrNotFound
	}
	delete(g.events, id)
	return nil
}

// memKV is an in-memory domain.KeyValueStore.
type memKV struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemKV() *memKV { return &memKV{m: map[string]string{}} }

func (k *memKV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *memKV) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = value
	return nil
}

func (k *memKV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

// recordingNotifier keeps every notice.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}
