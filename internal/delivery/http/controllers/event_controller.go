package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"calendasync/internal/delivery/http/helpers"
	"calendasync/internal/delivery/http/middleware"
	"calendasync/internal/domain"
)

// EventRequest is the request body for POST /events and PUT /events/{eventID}.
// Times are ISO-8601 strings; a value without an offset is read as UTC.
type EventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func (e EventRequest) candidate() domain.EventCandidate {
	return domain.EventCandidate{Title: e.Title, Description: e.Description, StartTime: e.StartTime, EndTime: e.EndTime}
}

// EventSuccessResponse is the success envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success envelope for GET /events (200).
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ownerAndEvent resolves the authenticated owner and the path event id. A malformed id cannot
// name an event, so it is reported as not found.
func (c *EventController) ownerAndEvent(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", "", false
	}
	eventID := r.PathValue("eventID")
	if _, err := uuid.Parse(eventID); err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		return "", "", false
	}
	return userID, eventID, true
}

func parseFilter(r *http.Request) (domain.EventFilter, error) {
	q := r.URL.Query()
	var filter domain.EventFilter
	var fields []domain.FieldError
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"start", &filter.OverlapStart}, {"end", &filter.OverlapEnd}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			fields = append(fields, domain.FieldError{Field: p.name, Message: p.name + " must be an RFC 3339 timestamp"})
			continue
		}
		*p.dst = &t
	}
	if ex := q.Get("exclude"); ex != "" {
		if _, err := uuid.Parse(ex); err != nil {
			fields = append(fields, domain.FieldError{Field: "exclude", Message: "exclude must be an event id"})
		}
		filter.ExcludeID = ex
	}
	if len(fields) > 0 {
		return filter, &domain.ValidationError{Fields: fields}
	}
	return filter, nil
}

// ListEvents godoc
// @Summary List the caller's events
// @Description Events ordered by start time. With start and end, only events overlapping [start, end) are returned; exclude drops one id.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param start query string false "Window start (RFC 3339)"
// @Param end query string false "Window end (RFC 3339)"
// @Param exclude query string false "Event ID to leave out"
// @Success 200 {object} controllers.EventListSuccessResponse "data contains the events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	events, err := c.Service.List(r.Context(), userID, filter)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// CreateEvent godoc
// @Summary Create an event
// @Description The caller becomes the owner. Rejected with 409 when it overlaps another of the caller's events.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, error.fields lists violations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Create(r.Context(), userID, req.candidate())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := c.ownerAndEvent(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Get(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Replace an event
// @Description Every field is resubmitted and revalidated. The event's own interval never conflicts with itself.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body EventRequest true "Event data"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := c.ownerAndEvent(w, r)
	if !ok {
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Update(r.Context(), userID, eventID, req.candidate())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := c.ownerAndEvent(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), userID, eventID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
