package domain

import (
	"context"
	"io"
	"time"
)

// Event is a user-owned, time-bounded calendar entry over the half-open interval [StartTime, EndTime).
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event owned by userID built from a validated input. ID is set by the repository.
func NewEvent(userID string, in EventInput, createdAt, updatedAt time.Time) *Event {
	return &Event{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// EventCandidate is an unvalidated event submission. Times are raw strings as entered.
type EventCandidate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// EventInput is a candidate that passed validation: trimmed title, normalized description, parsed times.
type EventInput struct {
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// EventFilter narrows an owner's event listing. A nil bound disables the overlap filter.
type EventFilter struct {
	OverlapStart *time.Time
	OverlapEnd   *time.Time
	ExcludeID    string
}

// EventRepository defines the interface for event storage. Every call is scoped to the owning user.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, userID, id string) (*Event, error)
	List(ctx context.Context, userID string, filter EventFilter) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, userID, id string) error
}

// EventService defines the business logic for a user's calendar.
type EventService interface {
	List(ctx context.Context, userID string, filter EventFilter) ([]*Event, error)
	Get(ctx context.Context, userID, id string) (*Event, error)
	Create(ctx context.Context, userID string, candidate EventCandidate) (*Event, error)
	Update(ctx context.Context, userID, id string, candidate EventCandidate) (*Event, error)
	Delete(ctx context.Context, userID, id string) error
}

// CalendarExporter writes a user's events as an iCalendar document.
type CalendarExporter interface {
	Export(ctx context.Context, userID string, w io.Writer) error
}
