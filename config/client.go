package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig configures the calendasync command-line client.
type ClientConfig struct {
	// APIURL is the base URL of the calendasync API server.
	APIURL string `yaml:"api_url"`
	// StatePath is the SQLite file holding the client's local state.
	StatePath string `yaml:"state_path"`
	// WaitlistURL receives landing-page signups. Defaults to APIURL + "/waitlist".
	WaitlistURL    string        `yaml:"waitlist_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultClientPath is $XDG_CONFIG_HOME/calendasync/config.yaml, or the platform equivalent.
func DefaultClientPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "calendasync.yaml"
	}
	return filepath.Join(dir, "calendasync", "config.yaml")
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "calendasync.db"
	}
	return filepath.Join(dir, "calendasync", "state.db")
}

// Normalize fills zero values with defaults.
func (c *ClientConfig) Normalize() {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:8080"
	}
	if c.StatePath == "" {
		c.StatePath = defaultStatePath()
	}
	if c.WaitlistURL == "" {
		c.WaitlistURL = c.APIURL + "/waitlist"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// LoadClient reads the YAML file at path. A missing file yields defaults.
// CALENDASYNC_API_URL overrides api_url.
func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read client config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse client config %s: %w", path, err)
		}
	}
	if u := os.Getenv("CALENDASYNC_API_URL"); u != "" {
		cfg.APIURL = u
	}
	cfg.Normalize()
	return &cfg, nil
}
