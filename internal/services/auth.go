package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"calendasync/internal/domain"
	"calendasync/internal/validation"
)

const (
	codeDigits = 6
	// maxCodeAttempts is the number of guesses a single emailed code allows.
	maxCodeAttempts = 5
)

type authService struct {
	userRepo     domain.UserRepository
	codeRepo     domain.OneTimeCodeRepository
	hasher       domain.PasswordHasher
	tokenIssuer  domain.TokenIssuer
	tokenExpiry  time.Duration
	codeTTL      time.Duration
	emailService domain.EmailService
	now          func() time.Time
}

// NewAuthService creates an AuthService. emailService may be nil, in which case codes are stored but not sent.
func NewAuthService(userRepo domain.UserRepository, codeRepo domain.OneTimeCodeRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry, codeTTL time.Duration, emailService domain.EmailService) domain.AuthService {
	return &authService{
		userRepo:     userRepo,
		codeRepo:     codeRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		tokenExpiry:  tokenExpiry,
		codeTTL:      codeTTL,
		emailService: emailService,
		now:          time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	if err := validation.ValidateUser(email, password); err != nil {
		return nil, err
	}
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := domain.NewUser(validation.NormalizeEmail(email), hash, salt, now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *authService) RequestOTP(ctx context.Context, email string) error {
	return s.issueCode(ctx, email, domain.CodePurposeLogin)
}

func (s *authService) VerifyOTP(ctx context.Context, email, code string) (*domain.Session, error) {
	user, err := s.consumeCode(ctx, email, code, domain.CodePurposeLogin)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *authService) ResetPassword(ctx context.Context, email string) error {
	return s.issueCode(ctx, email, domain.CodePurposeRecovery)
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.consumeCode(ctx, email, code, domain.CodePurposeRecovery)
	if err != nil {
		return err
	}
	if err := s.setPassword(user, newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *authService) session(user *domain.User) (*domain.Session, error) {
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &domain.Session{Token: token, User: user}, nil
}

func (s *authService) setPassword(user *domain.User, password string) error {
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return err
	}
	user.Salt = salt
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return nil
}

// issueCode stores and emails a fresh code. Unknown addresses succeed silently so the
// endpoint does not reveal which emails are registered.
func (s *authService) issueCode(ctx context.Context, email string, purpose domain.CodePurpose) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	email = validation.NormalizeEmail(email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	code, err := generateCode(codeDigits)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	if err := s.codeRepo.Create(ctx, email, purpose, hashCode(code), s.now().Add(s.codeTTL)); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	if s.emailService == nil {
		return nil
	}
	data := &domain.CodeEmailData{
		Email:            email,
		Code:             code,
		ExpiresInMinutes: int(s.codeTTL / time.Minute),
	}
	if purpose == domain.CodePurposeRecovery {
		err = s.emailService.SendPasswordResetCode(ctx, data)
	} else {
		err = s.emailService.SendLoginCode(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("failed to send code email: %w", err)
	}
	return nil
}

func (s *authService) consumeCode(ctx context.Context, email, code string, purpose domain.CodePurpose) (*domain.User, error) {
	email = validation.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if validation.ValidateEmail(email) != nil || validation.ValidateOTP(code) != nil {
		return nil, domain.ErrInvalidCode
	}
	consumed, err := s.codeRepo.Consume(ctx, email, purpose, hashCode(code), maxCodeAttempts)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return nil, fmt.Errorf("%w: request a new code", domain.ErrRateLimited)
		}
		return nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !consumed {
		return nil, domain.ErrInvalidCode
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func generateCode(digits int) (string, error) {
	const digitspace = "0123456789"
	b := make([]byte, digits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = digitspace[int(b[i])%len(digitspace)]
	}
	return string(b), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
