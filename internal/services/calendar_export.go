package services

import (
	"context"
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"calendasync/internal/domain"
)

const calendarProductID = "-//calendasync//events//EN"

type calendarExporter struct {
	eventRepo domain.EventRepository
	now       func() time.Time
}

// NewCalendarExporter returns a CalendarExporter that renders every event of a user as a VEVENT.
func NewCalendarExporter(eventRepo domain.EventRepository) domain.CalendarExporter {
	return &calendarExporter{eventRepo: eventRepo, now: time.Now}
}

func (x *calendarExporter) Export(ctx context.Context, userID string, w io.Writer) error {
	events, err := x.eventRepo.List(ctx, userID, domain.EventFilter{})
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(calendarProductID)
	stamp := x.now().UTC()
	for _, e := range events {
		ve := cal.AddEvent(e.ID + "@calendasync")
		ve.SetDtStampTime(stamp)
		ve.SetCreatedTime(e.CreatedAt.UTC())
		ve.SetModifiedAt(e.UpdatedAt.UTC())
		ve.SetStartAt(e.StartTime.UTC())
		ve.SetEndAt(e.EndTime.UTC())
		ve.SetSummary(e.Title)
		if e.Description != nil {
			ve.SetDescription(*e.Description)
		}
	}
	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}
