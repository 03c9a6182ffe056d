package domain

import (
	"context"
	"time"
)

// WaitlistEntry is a landing-page signup.
type WaitlistEntry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Industry    string    `json:"industry"`
	CurrentRole string    `json:"currentRole"`
	CreatedAt   time.Time `json:"created_at"`
}

// WaitlistResult is the wire contract of the waitlist endpoint.
type WaitlistResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// WaitlistRepository stores waitlist entries.
type WaitlistRepository interface {
	Create(ctx context.Context, entry *WaitlistEntry) error
}

// WaitlistService accepts landing-page signups.
type WaitlistService interface {
	Join(ctx context.Context, entry *WaitlistEntry) error
}
