package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"calendasync/internal/delivery/http/helpers"
	"calendasync/internal/domain"

	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// decodeEnvelope decodes the API envelope and, when dest is non-nil, its data.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return env.Error
}

type fakeAuthService struct {
	user    *domain.User
	session *domain.Session
	err     error

	lastEmail, lastPassword, lastCode string
}

func (f *fakeAuthService) SignUp(_ context.Context, email, password string) (*domain.User, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.user, f.err
}

func (f *fakeAuthService) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.session, f.err
}

func (f *fakeAuthService) RequestOTP(_ context.Context, email string) error {
	f.lastEmail = email
	return f.err
}

func (f *fakeAuthService) VerifyOTP(_ context.Context, email, code string) (*domain.Session, error) {
	f.lastEmail, f.lastCode = email, code
	return f.session, f.err
}

func (f *fakeAuthService) ResetPassword(_ context.Context, email string) error {
	f.lastEmail = email
	return f.err
}

func (f *fakeAuthService) ConfirmPasswordReset(_ context.Context, email, code, newPassword string) error {
	f.lastEmail, f.lastCode, f.lastPassword = email, code, newPassword
	return f.err
}

type fakeUserService struct {
	user      *domain.User
	err       error
	lastPatch domain.UserPatch
}

func (f *fakeUserService) GetByID(context.Context, string) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) Update(_ context.Context, _ string, patch domain.UserPatch) (*domain.User, error) {
	f.lastPatch = patch
	return f.user, f.err
}

type fakeEventService struct {
	event      *domain.Event
	events     []*domain.Event
	err        error
	lastUserID string
	lastID     string
	lastFilter domain.EventFilter
	lastInput  domain.EventCandidate
}

func (f *fakeEventService) List(_ context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, error) {
	f.lastUserID, f.lastFilter = userID, filter
	return f.events, f.err
}

func (f *fakeEventService) Get(_ context.Context, userID, id string) (*domain.Event, error) {
	f.lastUserID, f.lastID = userID, id
	return f.event, f.err
}

func (f *fakeEventService) Create(_ context.Context, userID string, c domain.EventCandidate) (*domain.Event, error) {
	f.lastUserID, f.lastInput = userID, c
	return f.event, f.err
}

func (f *fakeEventService) Update(_ context.Context, userID, id string, c domain.EventCandidate) (*domain.Event, error) {
	f.lastUserID, f.lastID, f.lastInput = userID, id, c
	return f.event, f.err
}

func (f *fakeEventService) Delete(_ context.Context, userID, id string) error {
	f.lastUserID, f.lastID = userID, id
	return f.err
}

type fakeExporter struct {
	body string
	err  error
}

func (f *fakeExporter) Export(_ context.Context, _ string, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.body)
	return err
}

type fakeWaitlistService struct {
	err  error
	last *domain.WaitlistEntry
}

func (f *fakeWaitlistService) Join(_ context.Context, e *domain.WaitlistEntry) error {
	f.last = e
	return f.err
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }
