// Package waitlist submits landing-page signups to the waitlist endpoint.
package waitlist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"calendasync/internal/domain"
)

// Timeout bounds a whole submission, including reading the response.
const Timeout = 15 * time.Second

var (
	ErrTimeout     = errors.New("waitlist request timed out")
	ErrUnreachable = errors.New("failed to contact the waitlist endpoint")
	ErrRejected    = errors.New("waitlist submission failed")
)

// Entry is the form payload. Empty fields are omitted.
type Entry struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Industry    string `json:"industry,omitempty"`
	CurrentRole string `json:"currentRole,omitempty"`
}

type Submitter struct {
	url     string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewSubmitter(url string, httpClient *http.Client, logger *slog.Logger) *Submitter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{url: url, http: httpClient, timeout: Timeout, logger: logger}
}

// Submit posts the entry and always returns a populated result. The error is non-nil
// exactly when the result is unsuccessful and matches ErrTimeout, ErrUnreachable or ErrRejected.
func (s *Submitter) Submit(ctx context.Context, entry Entry) (domain.WaitlistResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.submit(ctx, entry)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		}
		s.logger.WarnContext(ctx, "waitlist submission failed", "error", err)
		return domain.WaitlistResult{Success: false, Error: userMessage(err)}, err
	}
	return res, nil
}

func (s *Submitter) submit(ctx context.Context, entry Entry) (domain.WaitlistResult, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return domain.WaitlistResult{}, fmt.Errorf("failed to encode entry: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return domain.WaitlistResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return domain.WaitlistResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	var out domain.WaitlistResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return domain.WaitlistResult{}, ctx.Err()
		}
		return domain.WaitlistResult{}, fmt.Errorf("%w: unreadable response (status %d)", ErrRejected, resp.StatusCode)
	}
	if !out.Success {
		if out.Error != "" {
			return domain.WaitlistResult{}, &RejectedError{Message: out.Error}
		}
		return domain.WaitlistResult{}, ErrRejected
	}
	return domain.WaitlistResult{Success: true}, nil
}

// RejectedError carries the endpoint's own reason for refusing a submission.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string        { return e.Message }
func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

func userMessage(err error) string {
	var rej *RejectedError
	switch {
	case errors.As(err, &rej):
		return rej.Message
	case errors.Is(err, ErrTimeout):
		return "Request timed out"
	case errors.Is(err, ErrUnreachable):
		return "Failed to contact the server"
	}
	return "Submission failed"
}
