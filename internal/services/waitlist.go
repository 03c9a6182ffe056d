package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"calendasync/internal/domain"
	"calendasync/internal/validation"
)

type waitlistService struct {
	repo domain.WaitlistRepository
	now  func() time.Time
}

func NewWaitlistService(repo domain.WaitlistRepository) domain.WaitlistService {
	return &waitlistService{repo: repo, now: time.Now}
}

func (s *waitlistService) Join(ctx context.Context, entry *domain.WaitlistEntry) error {
	if entry == nil {
		return fmt.Errorf("waitlist entry is nil")
	}
	entry.Name = strings.TrimSpace(entry.Name)
	entry.Email = validation.NormalizeEmail(entry.Email)
	entry.Industry = strings.TrimSpace(entry.Industry)
	entry.CurrentRole = strings.TrimSpace(entry.CurrentRole)

	var fields []domain.FieldError
	if entry.Name == "" {
		fields = append(fields, domain.FieldError{Field: "name", Message: "Name is required"})
	}
	if err := validation.ValidateEmail(entry.Email); err != nil {
		fields = append(fields, fieldErrors(err)...)
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	entry.CreatedAt = s.now()
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to join waitlist: %w", err)
	}
	return nil
}
