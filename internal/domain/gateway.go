package domain

import "context"

// Gateway is the remote data service as seen from the client: authentication plus
// owner-scoped row operations on events. Implementations keep the current session.
type Gateway interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*Session, error)
	ResetPassword(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
	UpdateUser(ctx context.Context, patch UserPatch) (*User, error)
	// CurrentUser returns ErrUnauthenticated when there is no session.
	CurrentUser(ctx context.Context) (*User, error)
	// SessionUserID names the owner of the stored session without contacting the server.
	// It is empty when there is no session.
	SessionUserID() string

	// ListEvents returns userID's events ordered by start time ascending.
	ListEvents(ctx context.Context, userID string, filter EventFilter) ([]*Event, error)
	GetEvent(ctx context.Context, userID, id string) (*Event, error)
	InsertEvent(ctx context.Context, userID string, in EventInput) (*Event, error)
	UpdateEvent(ctx context.Context, userID, id string, in EventInput) (*Event, error)
	DeleteEvent(ctx context.Context, userID, id string) error
}

// Notifier surfaces user-facing notices (toasts).
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}
