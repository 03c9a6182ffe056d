package signin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"calendasync/internal/domain"
	"calendasync/internal/validation"
)

var (
	// ErrDeviceVerificationRequired means a code was emailed and VerifyDevice must follow.
	ErrDeviceVerificationRequired = errors.New("device verification required")
	ErrPasswordMismatch           = errors.New("new passwords do not match")
	ErrPasswordFieldsMissing      = errors.New("please fill in all password fields")
	ErrWrongCurrentPassword       = errors.New("current password is incorrect")
)

// Flow drives the account screens against the gateway.
type Flow struct {
	gateway  domain.Gateway
	kv       domain.KeyValueStore
	devices  *DeviceGate
	lockout  *Lockout
	resets   *ResetLimiter
	notifier domain.Notifier
}

func NewFlow(gateway domain.Gateway, kv domain.KeyValueStore, notifier domain.Notifier) *Flow {
	return &Flow{
		gateway:  gateway,
		kv:       kv,
		devices:  NewDeviceGate(kv),
		lockout:  NewLockout(kv),
		resets:   NewResetLimiter(kv),
		notifier: notifier,
	}
}

func (f *Flow) fail(ctx context.Context, err error) error {
	f.notifier.Error(ctx, message(err))
	return err
}

func message(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "Email already registered"
	case errors.Is(err, domain.ErrInvalidCode):
		return "Invalid or expired verification code"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "User not authenticated"
	case errors.Is(err, ErrPasswordMismatch):
		return "New passwords do not match"
	case errors.Is(err, ErrPasswordFieldsMissing):
		return "Please fill in all password fields"
	case errors.Is(err, ErrWrongCurrentPassword):
		return "Current password is incorrect"
	}
	return err.Error()
}

// SignIn signs in with a password on a known device. On an unknown device it emails a
// one-time code instead and returns ErrDeviceVerificationRequired.
func (f *Flow) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := f.lockout.Check(ctx); err != nil {
		return nil, f.fail(ctx, err)
	}
	if err := validation.ValidateUser(email, password); err != nil {
		return nil, f.fail(ctx, err)
	}
	known, err := f.devices.IsKnownDevice(ctx)
	if err != nil {
		return nil, f.fail(ctx, err)
	}
	if !known {
		if err := f.gateway.RequestOTP(ctx, email); err != nil {
			return nil, f.fail(ctx, err)
		}
		f.notifier.Success(ctx, "Please check your email for the verification code")
		return nil, ErrDeviceVerificationRequired
	}

	sess, err := f.passwordSignIn(ctx, email, password)
	if err != nil {
		return nil, f.fail(ctx, err)
	}
	f.notifier.Success(ctx, "Welcome back!")
	return sess, nil
}

// VerifyDevice completes a suspended sign-in: the emailed code first, then the original
// credentials. The device is trusted only when both succeed.
func (f *Flow) VerifyDevice(ctx context.Context, email, password, code string) (*domain.Session, error) {
	if err := f.lockout.Check(ctx); err != nil {
		return nil, f.fail(ctx, err)
	}
	if err := validation.ValidateOTP(code); err != nil {
		return nil, f.fail(ctx, err)
	}
	if _, err := f.gateway.VerifyOTP(ctx, email, strings.TrimSpace(code)); err != nil {
		return nil, f.fail(ctx, err)
	}
	sess, err := f.passwordSignIn(ctx, email, password)
	if err != nil {
		_ = f.gateway.SignOut(ctx)
		return nil, f.fail(ctx, err)
	}
	f.notifier.Success(ctx, "Device verified successfully!")
	return sess, nil
}

func (f *Flow) passwordSignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	sess, err := f.gateway.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			if rerr := f.lockout.RecordFailure(ctx); rerr != nil {
				return nil, fmt.Errorf("%w (and failed to record attempt: %v)", err, rerr)
			}
		}
		return nil, err
	}
	if err := f.lockout.Reset(ctx); err != nil {
		return nil, err
	}
	if err := f.devices.RegisterDevice(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

func (f *Flow) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	if err := validation.ValidateUser(email, password); err != nil {
		return nil, f.fail(ctx, err)
	}
	u, err := f.gateway.SignUp(ctx, email, password)
	if err != nil {
		return nil, f.fail(ctx, err)
	}
	f.notifier.Success(ctx, "Welcome! Your account is ready, please sign in.")
	return u, nil
}

// SignOut drops the session and the cached event list it owned.
func (f *Flow) SignOut(ctx context.Context) error {
	if err := f.gateway.SignOut(ctx); err != nil {
		return f.fail(ctx, err)
	}
	if err := f.kv.Delete(ctx, domain.KeyCachedEvents); err != nil {
		return f.fail(ctx, err)
	}
	return nil
}

// RequestPasswordReset emails a recovery code, at most MaxResetRequests times per ResetWindow.
func (f *Flow) RequestPasswordReset(ctx context.Context, email string) error {
	if err := f.resets.Check(ctx); err != nil {
		return f.fail(ctx, err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return f.fail(ctx, err)
	}
	if err := f.resets.Record(ctx); err != nil {
		return f.fail(ctx, err)
	}
	if err := f.gateway.ResetPassword(ctx, email); err != nil {
		return f.fail(ctx, err)
	}
	f.notifier.Success(ctx, "Password reset instructions sent to your email")
	return nil
}

func (f *Flow) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return f.fail(ctx, err)
	}
	if err := f.gateway.ConfirmPasswordReset(ctx, email, strings.TrimSpace(code), newPassword); err != nil {
		return f.fail(ctx, err)
	}
	f.notifier.Success(ctx, "Password updated successfully")
	return nil
}

// ChangePassword re-checks the current password before replacing it.
func (f *Flow) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return f.fail(ctx, ErrPasswordFieldsMissing)
	}
	if next != confirm {
		return f.fail(ctx, ErrPasswordMismatch)
	}
	if err := validation.ValidatePassword(next); err != nil {
		return f.fail(ctx, err)
	}
	u, err := f.gateway.CurrentUser(ctx)
	if err != nil {
		return f.fail(ctx, err)
	}
	if _, err := f.gateway.SignIn(ctx, u.Email, current); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			err = ErrWrongCurrentPassword
		}
		return f.fail(ctx, err)
	}
	if _, err := f.gateway.UpdateUser(ctx, domain.UserPatch{Password: &next}); err != nil {
		return f.fail(ctx, err)
	}
	f.notifier.Success(ctx, "Password updated successfully")
	return nil
}

// ChangeEmail updates the account address. An unchanged address is a no-op.
func (f *Flow) ChangeEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := f.gateway.CurrentUser(ctx)
	if err != nil {
		return nil, f.fail(ctx, err)
	}
	if email == "" || validation.NormalizeEmail(email) == u.Email {
		return u, nil
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, f.fail(ctx, err)
	}
	updated, err := f.gateway.UpdateUser(ctx, domain.UserPatch{Email: &email})
	if err != nil {
		return nil, f.fail(ctx, err)
	}
	f.notifier.Success(ctx, "Email updated")
	return updated, nil
}
