package controllers

import (
	"bytes"
	"log/slog"
	"net/http"

	"calendasync/internal/delivery/http/helpers"
	"calendasync/internal/delivery/http/middleware"
	"calendasync/internal/domain"
)

type CalendarController struct {
	Logger   *slog.Logger
	Exporter domain.CalendarExporter
}

func NewCalendarController(logger *slog.Logger, exporter domain.CalendarExporter) *CalendarController {
	return &CalendarController{Logger: logger, Exporter: exporter}
}

// Export godoc
// @Summary Download the caller's events as iCalendar
// @Tags events
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string "VCALENDAR document"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar.ics [get]
func (c *CalendarController) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	// rendered in full first so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := c.Exporter.Export(r.Context(), userID, &buf); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendasync.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
