package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"calendasync/internal/domain"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500

	// MaxEventDuration bounds end - start.
	MaxEventDuration = 7 * 24 * time.Hour
)

// timestampLayouts are tried in order. Zone-less layouts are read in the caller's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp parses an RFC 3339 or datetime-local style value; zone-less input is read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var titleRules = []rule{
	{func(v string) bool { return v != "" }, "Title is required"},
	{func(v string) bool { return v == "" || strings.TrimSpace(v) != "" }, "Title cannot be only whitespace"},
	{func(v string) bool { return utf8.RuneCountInString(v) <= maxTitleLen }, "Title must be less than 100 characters"},
}

var descriptionRules = []rule{
	{func(v string) bool { return utf8.RuneCountInString(v) <= maxDescriptionLen }, "Description must be less than 500 characters"},
}

// ValidateEvent checks a candidate against now and returns the normalized input.
// Start and end are compared with now at minute granularity (seconds zeroed). Every
// violated field is reported; the ordering and duration checks run once both times parse.
func ValidateEvent(c domain.EventCandidate, now time.Time) (domain.EventInput, error) {
	errs := apply(nil, "title", c.Title, titleRules)
	errs = apply(errs, "description", c.Description, descriptionRules)

	floor := now.Truncate(time.Minute)
	start, startOK := ParseTimestamp(c.StartTime, now.Location())
	if !startOK || start.Before(floor) {
		errs = append(errs, domain.FieldError{Field: "start_time", Message: "Start time must be a valid date in the future"})
	}
	end, endOK := ParseTimestamp(c.EndTime, now.Location())
	if !endOK || end.Before(floor) {
		errs = append(errs, domain.FieldError{Field: "end_time", Message: "End time must be a valid date in the future"})
	}
	if startOK && endOK {
		switch d := end.Sub(start); {
		case d <= 0:
			errs = append(errs, domain.FieldError{Field: "end_time", Message: "Event must end after start time"})
		case d > MaxEventDuration:
			errs = append(errs, domain.FieldError{Field: "end_time", Message: "Event cannot be longer than 7 days"})
		}
	}
	if err := result(errs); err != nil {
		return domain.EventInput{}, err
	}

	in := domain.EventInput{
		Title:     strings.TrimSpace(c.Title),
		StartTime: start,
		EndTime:   end,
	}
	if desc := strings.TrimSpace(c.Description); desc != "" {
		in.Description = &desc
	}
	return in, nil
}

// Candidate renders a validated input back into its submission form, times in RFC 3339.
func Candidate(in domain.EventInput) domain.EventCandidate {
	c := domain.EventCandidate{
		Title:     in.Title,
		StartTime: in.StartTime.Format(time.RFC3339),
		EndTime:   in.EndTime.Format(time.RFC3339),
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	return c
}
