// Package conflict decides whether a proposed time range overlaps an owner's existing events.
package conflict

import (
	"context"
	"time"

	"calendasync/internal/domain"
)

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2) intersect.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// ListFunc lists an owner's events matching filter. Both domain.EventRepository.List and
// domain.Gateway.ListEvents fit this shape.
type ListFunc func(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, error)

// Checker asks the authoritative event source for overlapping events.
type Checker struct {
	list ListFunc
}

func NewChecker(list ListFunc) *Checker {
	return &Checker{list: list}
}

// HasConflict reports whether any of userID's events other than excludeID overlaps [start, end).
// A failed query is returned as *domain.ConflictCheckError and never as false.
func (c *Checker) HasConflict(ctx context.Context, userID string, start, end time.Time, excludeID string) (bool, error) {
	events, err := c.list(ctx, userID, domain.EventFilter{
		OverlapStart: &start,
		OverlapEnd:   &end,
		ExcludeID:    excludeID,
	})
	if err != nil {
		return false, &domain.ConflictCheckError{Err: err}
	}
	for _, e := range events {
		if e.ID == excludeID && excludeID != "" {
			continue
		}
		if Overlaps(start, end, e.StartTime, e.EndTime) {
			return true, nil
		}
	}
	return false, nil
}
