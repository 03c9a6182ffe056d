// Package store holds the client's view of the signed-in user's calendar. The remote
// gateway is the source of truth; every successful mutation is followed by a refetch.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"calendasync/internal/conflict"
	"calendasync/internal/domain"
	"calendasync/internal/localstate"
	"calendasync/internal/validation"
)

// CacheTTL bounds how old a snapshot may be and still stand in for a failed fetch.
const CacheTTL = 5 * time.Minute

const cachedQualifier = " (showing cached data)"

type notFound string

func (e notFound) Error() string        { return string(e) }
func (e notFound) Is(target error) bool { return target == domain.ErrNotFound }

// Returned by Update and Delete when the target row is gone. Both match domain.ErrNotFound.
var (
	ErrEventGone    error = notFound("Event no longer exists")
	ErrEventDeleted error = notFound("Event already deleted")
)

// State is a point-in-time copy of the store.
type State struct {
	Events    []*domain.Event
	Loading   bool
	Error     string
	FromCache bool
}

// EventStore is safe to read from any goroutine, but operations are not serialized against
// each other: callers should not start a mutation while Loading is true.
type EventStore struct {
	gateway  domain.Gateway
	checker  *conflict.Checker
	kv       domain.KeyValueStore
	notifier domain.Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	state State
	// owner is the user whose events state.Events holds.
	owner string
}

func NewEventStore(gateway domain.Gateway, kv domain.KeyValueStore, notifier domain.Notifier, logger *slog.Logger) *EventStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventStore{
		gateway:  gateway,
		checker:  conflict.NewChecker(gateway.ListEvents),
		kv:       kv,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot returns a copy of the current state.
func (s *EventStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Events = append([]*domain.Event(nil), s.state.Events...)
	return st
}

func (s *EventStore) begin() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *EventStore) finish() {
	s.mu.Lock()
	s.state.Loading = false
	s.mu.Unlock()
}

func (s *EventStore) setEvents(owner string, events []*domain.Event, fromCache bool) {
	s.mu.Lock()
	s.owner = owner
	s.state.Events = events
	s.state.FromCache = fromCache
	s.mu.Unlock()
}

func (s *EventStore) fail(ctx context.Context, err error) error {
	msg := Message(err)
	s.mu.Lock()
	s.state.Error = msg
	s.mu.Unlock()
	s.notifier.Error(ctx, msg)
	return err
}

// Message renders err for display.
func Message(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "User not authenticated"
	case errors.Is(err, domain.ErrConflict):
		return "This time slot conflicts with another event"
	}
	var ce *domain.ConflictCheckError
	if errors.As(err, &ce) {
		return "Failed to check event conflicts"
	}
	return err.Error()
}

func (s *EventStore) currentUser(ctx context.Context) (*domain.User, error) {
	u, err := s.gateway.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

// FetchEvents replaces the event list with the server's. When the fetch fails, a snapshot
// younger than CacheTTL is shown instead; the fetch error is returned either way.
func (s *EventStore) FetchEvents(ctx context.Context) error {
	s.begin()
	defer s.finish()
	return s.fetch(ctx)
}

// fetch loads the signed-in user's events. Without a session nothing is shown, cached or
// not; otherwise a failed load falls back to that user's own snapshot.
func (s *EventStore) fetch(ctx context.Context) error {
	var (
		events []*domain.Event
		owner  string
	)
	u, err := s.currentUser(ctx)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		s.setEvents("", []*domain.Event{}, false)
		return s.fail(ctx, err)
	case err != nil:
		owner = s.gateway.SessionUserID()
	default:
		owner = u.ID
		events, err = s.gateway.ListEvents(ctx, u.ID, domain.EventFilter{})
	}
	s.forgetOtherOwner(owner)
	if err == nil {
		if events == nil {
			events = []*domain.Event{}
		}
		s.setEvents(owner, events, false)
		snap := domain.CachedSnapshot{UserID: owner, Data: events, Timestamp: s.now().UnixMilli()}
		if err := localstate.SetJSON(ctx, s.kv, domain.KeyCachedEvents, snap); err != nil {
			s.logger.WarnContext(ctx, "failed to cache events", "error", err)
		}
		return nil
	}

	msg := Message(err)
	s.mu.Lock()
	s.state.Error = msg
	s.mu.Unlock()
	if cached, ok := s.freshSnapshot(ctx, owner); ok {
		s.setEvents(owner, cached, true)
		s.notifier.Error(ctx, msg+cachedQualifier)
		return err
	}
	s.notifier.Error(ctx, msg)
	return err
}

// forgetOtherOwner drops loaded events that belong to anyone but owner.
func (s *EventStore) forgetOtherOwner(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != owner || owner == "" {
		s.owner = owner
		s.state.Events = []*domain.Event{}
		s.state.FromCache = false
	}
}

// freshSnapshot returns the cached list when it belongs to userID and is younger than CacheTTL.
func (s *EventStore) freshSnapshot(ctx context.Context, userID string) ([]*domain.Event, bool) {
	var snap domain.CachedSnapshot
	ok, err := localstate.GetJSON(ctx, s.kv, domain.KeyCachedEvents, &snap)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read cached events", "error", err)
		return nil, false
	}
	if !ok || snap.UserID == "" || snap.UserID != userID {
		return nil, false
	}
	age := s.now().Sub(time.UnixMilli(snap.Timestamp))
	if age < 0 || age >= CacheTTL {
		return nil, false
	}
	return snap.Data, true
}

// Create validates candidate, rejects overlapping slots, inserts, then refetches.
func (s *EventStore) Create(ctx context.Context, candidate domain.EventCandidate) error {
	s.begin()
	defer s.finish()

	u, err := s.currentUser(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	in, err := validation.ValidateEvent(candidate, s.now())
	if err != nil {
		return s.fail(ctx, err)
	}
	if err := s.ensureFree(ctx, u.ID, in, ""); err != nil {
		return s.fail(ctx, err)
	}
	if _, err := s.gateway.InsertEvent(ctx, u.ID, in); err != nil {
		return s.fail(ctx, err)
	}
	s.notifier.Success(ctx, "Event created successfully")
	_ = s.fetch(ctx)
	return nil
}

// Update replaces the fields of event id after confirming it still exists.
func (s *EventStore) Update(ctx context.Context, id string, candidate domain.EventCandidate) error {
	s.begin()
	defer s.finish()

	u, err := s.currentUser(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	in, err := validation.ValidateEvent(candidate, s.now())
	if err != nil {
		return s.fail(ctx, err)
	}
	if err := s.ensureExists(ctx, u.ID, id, ErrEventGone); err != nil {
		return s.fail(ctx, err)
	}
	if err := s.ensureFree(ctx, u.ID, in, id); err != nil {
		return s.fail(ctx, err)
	}
	if _, err := s.gateway.UpdateEvent(ctx, u.ID, id, in); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = ErrEventGone
		}
		return s.fail(ctx, err)
	}
	s.notifier.Success(ctx, "Event updated successfully")
	_ = s.fetch(ctx)
	return nil
}

// Delete removes event id. Deleting an already removed event fails with ErrEventDeleted.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	s.begin()
	defer s.finish()

	u, err := s.currentUser(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	if err := s.ensureExists(ctx, u.ID, id, ErrEventDeleted); err != nil {
		return s.fail(ctx, err)
	}
	if err := s.gateway.DeleteEvent(ctx, u.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = ErrEventDeleted
		}
		return s.fail(ctx, err)
	}
	s.notifier.Success(ctx, "Event deleted successfully")
	_ = s.fetch(ctx)
	return nil
}

func (s *EventStore) ensureExists(ctx context.Context, userID, id string, missing error) error {
	if _, err := s.gateway.GetEvent(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return missing
		}
		return err
	}
	return nil
}

func (s *EventStore) ensureFree(ctx context.Context, userID string, in domain.EventInput, excludeID string) error {
	busy, err := s.checker.HasConflict(ctx, userID, in.StartTime, in.EndTime, excludeID)
	if err != nil {
		return err
	}
	if busy {
		return domain.ErrConflict
	}
	return nil
}
