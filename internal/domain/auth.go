package domain

import (
	"context"
	"time"
)

// CodePurpose distinguishes the flows a one-time code can complete.
type CodePurpose string

const (
	CodePurposeLogin    CodePurpose = "login"
	CodePurposeRecovery CodePurpose = "recovery"
)

// Session is the result of a successful sign-in.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// OneTimeCodeRepository stores hashed single-use codes sent by email. Only the newest
// code per email and purpose is live. Consume returns ErrRateLimited once the live code
// has taken maxAttempts guesses.
type OneTimeCodeRepository interface {
	Create(ctx context.Context, email string, purpose CodePurpose, codeHash string, expiresAt time.Time) error
	Consume(ctx context.Context, email string, purpose CodePurpose, codeHash string, maxAttempts int) (consumed bool, err error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthService covers sign-up, password sign-in, emailed codes, and password recovery.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*Session, error)
	ResetPassword(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
}
