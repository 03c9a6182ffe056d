// Package gateway is the client's HTTP binding to the calendasync API server.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"calendasync/internal/domain"
	"calendasync/internal/validation"
)

// StatusError is an API failure without a domain meaning.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned status %d (%s): %s", e.Status, e.Code, e.Message)
}

type apiError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

var codeErrors = map[string]error{
	"unauthorized":        domain.ErrUnauthenticated,
	"invalid_credentials": domain.ErrInvalidCredentials,
	"invalid_code":        domain.ErrInvalidCode,
	"not_found":           domain.ErrNotFound,
	"conflict":            domain.ErrConflict,
	"email_taken":         domain.ErrDuplicateEmail,
	"too_many_requests":   domain.ErrRateLimited,
}

// Client implements domain.Gateway over the JSON API. The session token lives in memory
// and, when a KeyValueStore is given, under domain.KeySessionToken so it survives restarts.
type Client struct {
	baseURL string
	http    *http.Client
	kv      domain.KeyValueStore

	mu    sync.RWMutex
	token string
}

var _ domain.Gateway = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client, kv domain.KeyValueStore) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		kv:      kv,
	}
}

// Restore loads a previously persisted session token.
func (c *Client) Restore(ctx context.Context) error {
	if c.kv == nil {
		return nil
	}
	token, ok, err := c.kv.Get(ctx, domain.KeySessionToken)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if ok {
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
	}
	return nil
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(ctx context.Context, token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	if c.kv == nil {
		return nil
	}
	if token == "" {
		return c.kv.Delete(ctx, domain.KeySessionToken)
	}
	return c.kv.Set(ctx, domain.KeySessionToken, token)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &StatusError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to decode api response: %w", err)
	}
	if resp.StatusCode >= 400 || env.Error != nil {
		return toError(resp.StatusCode, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode api data: %w", err)
	}
	return nil
}

func toError(status int, e *apiError) error {
	if e == nil {
		return &StatusError{Status: status, Message: http.StatusText(status)}
	}
	if len(e.Fields) > 0 {
		return &domain.ValidationError{Fields: e.Fields}
	}
	if sentinel, ok := codeErrors[e.Code]; ok {
		return sentinel
	}
	return &StatusError{Status: status, Code: e.Code, Message: e.Message}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Code     string `json:"code,omitempty"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodPost, "/auth/signup", credentials{Email: email, Password: password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.startSession(ctx, "/auth/login", credentials{Email: email, Password: password})
}

func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*domain.Session, error) {
	return c.startSession(ctx, "/auth/otp/verify", credentials{Email: email, Code: code})
}

func (c *Client) startSession(ctx context.Context, path string, in credentials) (*domain.Session, error) {
	var s domain.Session
	if err := c.do(ctx, http.MethodPost, path, in, &s); err != nil {
		return nil, err
	}
	if err := c.setToken(ctx, s.Token); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return &s, nil
}

// SignOut drops the local session. Tokens are stateless, so the server is not contacted.
func (c *Client) SignOut(ctx context.Context) error {
	return c.setToken(ctx, "")
}

func (c *Client) RequestOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/otp", credentials{Email: email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password", credentials{Email: email}, nil)
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password/confirm", credentials{Email: email, Code: code, Password: newPassword}, nil)
}

type userPatch struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, patch domain.UserPatch) (*domain.User, error) {
	if c.currentToken() == "" {
		return nil, domain.ErrUnauthenticated
	}
	var u domain.User
	if err := c.do(ctx, http.MethodPatch, "/users/me", userPatch{Email: patch.Email, Password: patch.Password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	if c.currentToken() == "" {
		return nil, domain.ErrUnauthenticated
	}
	var u domain.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			_ = c.setToken(ctx, "")
		}
		return nil, err
	}
	return &u, nil
}

// SessionUserID reads the subject of the stored token. The signature is not checked; the
// server does that on every request.
func (c *Client) SessionUserID() string {
	token := c.currentToken()
	if token == "" {
		return ""
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

// ensureOwner rejects calls made without a session. The server derives the owner from the token,
// so userID only has to be present.
func (c *Client) ensureOwner(userID string) error {
	if userID == "" || c.currentToken() == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

func (c *Client) ListEvents(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, error) {
	if err := c.ensureOwner(userID); err != nil {
		return nil, err
	}
	q := url.Values{}
	if filter.OverlapStart != nil && filter.OverlapEnd != nil {
		q.Set("start", filter.OverlapStart.Format(time.RFC3339Nano))
		q.Set("end", filter.OverlapEnd.Format(time.RFC3339Nano))
	}
	if filter.ExcludeID != "" {
		q.Set("exclude", filter.ExcludeID)
	}
	path := "/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	events := []*domain.Event{}
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, userID, id string) (*domain.Event, error) {
	if err := c.ensureOwner(userID); err != nil {
		return nil, err
	}
	var e domain.Event
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) InsertEvent(ctx context.Context, userID string, in domain.EventInput) (*domain.Event, error) {
	if err := c.ensureOwner(userID); err != nil {
		return nil, err
	}
	var e domain.Event
	if err := c.do(ctx, http.MethodPost, "/events", validation.Candidate(in), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateEvent(ctx context.Context, userID, id string, in domain.EventInput) (*domain.Event, error) {
	if err := c.ensureOwner(userID); err != nil {
		return nil, err
	}
	var e domain.Event
	if err := c.do(ctx, http.MethodPut, "/events/"+url.PathEscape(id), validation.Candidate(in), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) DeleteEvent(ctx context.Context, userID, id string) error {
	if err := c.ensureOwner(userID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil, nil)
}
