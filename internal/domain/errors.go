package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors shared by the server and the client core.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("user not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrConflict           = errors.New("this time slot conflicts with another event")
	ErrRateLimited        = errors.New("too many attempts")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated field of a rejected input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Messages returns the messages in field order, suitable for Validator implementations.
func (e *ValidationError) Messages() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Message
	}
	return out
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ConflictCheckError means the overlap query itself failed. It must never be read as "no conflict".
type ConflictCheckError struct {
	Err error
}

func (e *ConflictCheckError) Error() string {
	return fmt.Sprintf("failed to check event conflicts: %v", e.Err)
}

func (e *ConflictCheckError) Unwrap() error { return e.Err }

// RateLimitError is returned by the client-side lockout and reset limiter.
type RateLimitError struct {
	Reason     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	mins := int((e.RetryAfter + time.Minute - 1) / time.Minute)
	return fmt.Sprintf("%s. Please try again in %d minutes.", e.Reason, mins)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
