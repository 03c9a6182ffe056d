package signin

import (
	"context"
	"errors"
	"sync"

	"calendasync/internal/domain"
)

var errNotImplemented = errors.New("not implemented")

// fakeAuthGateway implements the account half of domain.Gateway.
type fakeAuthGateway struct {
	passwords   map[string]string
	codes       map[string]string
	current     *domain.User
	otpRequests []string
	signIns     int
	resets      []string
	updates     []domain.UserPatch
}

func newFakeAuthGateway() *fakeAuthGateway {
	return &fakeAuthGateway{
		passwords: map[string]string{"alice@example.com": "Sup3r$ecret"},
		codes:     map[string]string{},
	}
}

func (g *fakeAuthGateway) SignUp(_ context.Context, email, password string) (*domain.User, error) {
	if _, ok := g.passwords[email]; ok {
		return nil, domain.ErrDuplicateEmail
	}
	g.passwords[email] = password
	return &domain.User{ID: "user-new", Email: email}, nil
}

func (g *fakeAuthGateway) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	g.signIns++
	if pw, ok := g.passwords[email]; !ok || pw != password {
		return nil, domain.ErrInvalidCredentials
	}
	g.current = &domain.User{ID: "user-1", Email: email}
	return &domain.Session{Token: "tok", User: g.current}, nil
}

func (g *fakeAuthGateway) SignOut(context.Context) error {
	g.current = nil
	return nil
}

func (g *fakeAuthGateway) RequestOTP(_ context.Context, email string) error {
	g.otpRequests = append(g.otpRequests, email)
	g.codes[email] = "123456"
	return nil
}

func (g *fakeAuthGateway) VerifyOTP(_ context.Context, email, code string) (*domain.Session, error) {
	if g.codes[email] != code {
		return nil, domain.ErrInvalidCode
	}
	delete(g.codes, email)
	g.current = &domain.User{ID: "user-1", Email: email}
	return &domain.Session{Token: "otp-tok", User: g.current}, nil
}

func (g *fakeAuthGateway) ResetPassword(_ context.Context, email string) error {
	g.resets = append(g.resets, email)
	return nil
}

func (g *fakeAuthGateway) ConfirmPasswordReset(_ context.Context, email, code, newPassword string) error {
	if code != "654321" {
		return domain.ErrInvalidCode
	}
	g.passwords[email] = newPassword
	return nil
}

func (g *fakeAuthGateway) UpdateUser(_ context.Context, patch domain.UserPatch) (*domain.User, error) {
	if g.current == nil {
		return nil, domain.ErrUnauthenticated
	}
	g.updates = append(g.updates, patch)
	if patch.Password != nil {
		g.passwords[g.current.Email] = *patch.Password
	}
	if patch.Email != nil {
		g.current = &domain.User{ID: g.current.ID, Email: *patch.Email}
	}
	return g.current, nil
}

func (g *fakeAuthGateway) CurrentUser(context.Context) (*domain.User, error) {
	if g.current == nil {
		return nil, domain.ErrUnauthenticated
	}
	return g.current, nil
}

func (g *fakeAuthGateway) SessionUserID() string {
	if g.current == nil {
		return ""
	}
	return g.current.ID
}

func (g *fakeAuthGateway) ListEvents(context.Context, string, domain.EventFilter) ([]*domain.Event, error) {
	return nil, errNotImplemented
}

func (g *fakeAuthGateway) GetEvent(context.Context, string, string) (*domain.Event, error) {
	return nil, errNotImplemented
}

func (g *fakeAuthGateway) InsertEvent(context.Context, string, domain.EventInput) (*domain.Event, error) {
	return nil, errNotImplemented
}

func (g *fakeAuthGateway) UpdateEvent(context.Context, string, string, domain.EventInput) (*domain.Event, error) {
	return nil, errNotImplemented
}

func (g *fakeAuthGateway) DeleteEvent(context.Context, string, string) error {
	return errNotImplemented
}

type memKV struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemKV() *memKV { return &memKV{m: map[string]string{}} }

func (k *memKV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *memKV) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = value
	return nil
}

func (k *memKV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(_ context.Context, msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(_ context.Context, msg string)   { n.errors = append(n.errors, msg) }
