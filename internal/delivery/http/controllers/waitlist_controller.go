package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"calendasync/internal/domain"
)

// WaitlistRequest is the landing-page form.
type WaitlistRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Industry    string `json:"industry"`
	CurrentRole string `json:"currentRole"`
}

// WaitlistController answers with the bare {success, error} contract instead of the API envelope.
type WaitlistController struct {
	Logger  *slog.Logger
	Service domain.WaitlistService
}

func NewWaitlistController(logger *slog.Logger, svc domain.WaitlistService) *WaitlistController {
	return &WaitlistController{Logger: logger, Service: svc}
}

func writeWaitlistResult(w http.ResponseWriter, status int, res domain.WaitlistResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

// Join godoc
// @Summary Join the waitlist
// @Tags waitlist
// @Accept json
// @Produce json
// @Param body body WaitlistRequest true "Signup form"
// @Success 200 {object} domain.WaitlistResult
// @Failure 400 {object} domain.WaitlistResult
// @Failure 500 {object} domain.WaitlistResult
// @Router /waitlist [post]
func (c *WaitlistController) Join(w http.ResponseWriter, r *http.Request) {
	var req WaitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWaitlistResult(w, http.StatusBadRequest, domain.WaitlistResult{Error: "Invalid request body"})
		return
	}
	entry := &domain.WaitlistEntry{Name: req.Name, Email: req.Email, Industry: req.Industry, CurrentRole: req.CurrentRole}
	if err := c.Service.Join(r.Context(), entry); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeWaitlistResult(w, http.StatusBadRequest, domain.WaitlistResult{Error: ve.Error()})
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		writeWaitlistResult(w, http.StatusInternalServerError, domain.WaitlistResult{Error: "An unexpected error occurred"})
		return
	}
	writeWaitlistResult(w, http.StatusOK, domain.WaitlistResult{Success: true})
}
