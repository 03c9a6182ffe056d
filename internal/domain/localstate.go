package domain

import "context"

// Keys of the client's persisted key/value state.
const (
	KeyCachedEvents          = "cached_events"
	KeyKnownDevices          = "known_devices"
	KeyDeviceID              = "device_id"
	KeyPasswordResetAttempts = "password_reset_attempts"
	KeyDarkMode              = "darkMode"
	KeySessionToken          = "session_token"
	KeyLoginAttempts         = "login_attempts"
)

// KeyValueStore is the client's local persisted state (key → string).
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CachedSnapshot is the last successfully fetched event list of UserID. Timestamp is Unix milliseconds.
type CachedSnapshot struct {
	UserID    string   `json:"userId"`
	Data      []*Event `json:"data"`
	Timestamp int64    `json:"timestamp"`
}
