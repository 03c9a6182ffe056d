package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"calendasync/internal/domain"
	"calendasync/internal/validation"
)

type userService struct {
	userRepo domain.UserRepository
	hasher   domain.PasswordHasher
	now      func() time.Time
}

// NewUserService creates a UserService backed by the given repository and password hasher.
func NewUserService(userRepo domain.UserRepository, hasher domain.PasswordHasher) domain.UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update applies the non-nil fields of patch. Each present field is validated on its own.
func (s *userService) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	var fields []domain.FieldError
	if patch.Email != nil {
		if err := validation.ValidateEmail(*patch.Email); err != nil {
			fields = append(fields, fieldErrors(err)...)
		}
	}
	if patch.Password != nil {
		if err := validation.ValidatePassword(*patch.Password); err != nil {
			fields = append(fields, fieldErrors(err)...)
		}
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Email != nil {
		user.Email = validation.NormalizeEmail(*patch.Email)
	}
	if patch.Password != nil {
		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(salt, *patch.Password)
		if err != nil {
			return nil, err
		}
		user.Salt = salt
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func fieldErrors(err error) []domain.FieldError {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return []domain.FieldError{{Message: err.Error()}}
}
