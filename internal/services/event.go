package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"calendasync/internal/conflict"
	"calendasync/internal/domain"
	"calendasync/internal/validation"
)

type eventService struct {
	eventRepo      domain.EventRepository
	checker        *conflict.Checker
	contextTimeout time.Duration
	now            func() time.Time
}

// NewEventService returns an EventService that validates candidates and rejects overlapping
// slots before writing. The storage exclusion constraint still rejects races between the check and the write.
func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		checker:        conflict.NewChecker(eventRepo.List),
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) List(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if (filter.OverlapStart == nil) != (filter.OverlapEnd == nil) {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "range", Message: "start and end must be given together"},
		}}
	}
	return s.eventRepo.List(ctx, userID, filter)
}

func (s *eventService) Get(ctx context.Context, userID, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.eventRepo.GetByID(ctx, userID, id)
}

func (s *eventService) Create(ctx context.Context, userID string, candidate domain.EventCandidate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now().UTC()
	in, err := validation.ValidateEvent(candidate, now)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, userID, in, ""); err != nil {
		return nil, err
	}
	event := domain.NewEvent(userID, in, now, now)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) Update(ctx context.Context, userID, id string, candidate domain.EventCandidate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now().UTC()
	in, err := validation.ValidateEvent(candidate, now)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, userID, in, id); err != nil {
		return nil, err
	}
	event.Title = in.Title
	event.Description = in.Description
	event.StartTime = in.StartTime
	event.EndTime = in.EndTime
	event.UpdatedAt = now
	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.eventRepo.Delete(ctx, userID, id)
}

func (s *eventService) ensureFree(ctx context.Context, userID string, in domain.EventInput, excludeID string) error {
	busy, err := s.checker.HasConflict(ctx, userID, in.StartTime, in.EndTime, excludeID)
	if err != nil {
		return err
	}
	if busy {
		return domain.ErrConflict
	}
	return nil
}
