package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"calendasync/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "error": nil})
}

func writeErr(w http.ResponseWriter, status int, code, msg string, fields ...domain.FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	e := map[string]any{"code": code, "message": msg}
	if len(fields) > 0 {
		e["fields"] = fields
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": nil, "error": e})
}

func TestClient_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "Sup3r$ecret" {
			writeErr(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		writeData(w, http.StatusOK, domain.Session{Token: "tok-1", User: &domain.User{ID: "user-1", Email: body["email"]}})
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		writeData(w, http.StatusOK, domain.User{ID: "user-1", Email: "alice@example.com"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	kv := newMemKV()
	c := NewClient(srv.URL+"/", srv.Client(), kv)

	_, err := c.CurrentUser(ctx)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = c.SignIn(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	sess, err := c.SignIn(ctx, "alice@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.User.ID)
	assert.Equal(t, "tok-1", kv.m[domain.KeySessionToken])

	restored := NewClient(srv.URL, srv.Client(), kv)
	require.NoError(t, restored.Restore(ctx))
	u, err := restored.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	require.NoError(t, restored.SignOut(ctx))
	_, ok := kv.m[domain.KeySessionToken]
	assert.False(t, ok)
	_, err = restored.CurrentUser(ctx)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestClient_SessionUserID(t *testing.T) {
	ctx := context.Background()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte("any-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "no session", want: ""},
		{name: "signed token", token: token, want: "user-1"},
		{name: "garbage token", token: "not-a-jwt", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newMemKV()
			if tt.token != "" {
				kv.m[domain.KeySessionToken] = tt.token
			}
			c := NewClient("http://127.0.0.1:0", nil, kv)
			require.NoError(t, c.Restore(ctx))
			assert.Equal(t, tt.want, c.SessionUserID())
		})
	}
}

func TestClient_ExpiredTokenIsCleared(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
	}))
	defer srv.Close()

	kv := newMemKV()
	kv.m[domain.KeySessionToken] = "stale"
	c := NewClient(srv.URL, srv.Client(), kv)
	require.NoError(t, c.Restore(context.Background()))

	_, err := c.CurrentUser(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, kv.m)
}

func TestClient_Events(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	var gotQuery, gotAuth string
	var gotBody domain.EventCandidate
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		writeData(w, http.StatusOK, []*domain.Event{{ID: "ev-1", Title: "A", StartTime: start, EndTime: end}})
	})
	mux.HandleFunc("POST /events", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeErr(w, http.StatusConflict, "conflict", "this time slot conflicts with another event")
	})
	mux.HandleFunc("PUT /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusBadRequest, "bad_request", "Title is required",
			domain.FieldError{Field: "title", Message: "Title is required"})
	})
	mux.HandleFunc("GET /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found", "event not found")
	})
	mux.HandleFunc("DELETE /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	kv := newMemKV()
	kv.m[domain.KeySessionToken] = "tok-1"
	c := NewClient(srv.URL, srv.Client(), kv)
	require.NoError(t, c.Restore(ctx))

	events, err := c.ListEvents(ctx, "user-1", domain.EventFilter{OverlapStart: &start, OverlapEnd: &end, ExcludeID: "ev-9"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Contains(t, gotQuery, "exclude=ev-9")
	assert.Contains(t, gotQuery, "start=2025-06-02T09%3A00%3A00Z")

	_, err = c.InsertEvent(ctx, "user-1", domain.EventInput{Title: "B", StartTime: start, EndTime: end})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "B", gotBody.Title)
	assert.Equal(t, "2025-06-02T09:00:00Z", gotBody.StartTime)

	_, err = c.UpdateEvent(ctx, "user-1", "ev-1", domain.EventInput{StartTime: start, EndTime: end})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("title"))

	_, err = c.GetEvent(ctx, "user-1", "ev-404")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, c.DeleteEvent(ctx, "user-1", "ev-1"))

	require.ErrorIs(t, c.DeleteEvent(ctx, "", "ev-1"), domain.ErrUnauthenticated)
}

func TestClient_UnmappedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, srv.Client(), nil).RequestOTP(context.Background(), "alice@example.com")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
}
