package localstate

import (
	"context"
	"strconv"

	"calendasync/internal/domain"
)

// Preferences reads and writes UI settings.
type Preferences struct {
	kv domain.KeyValueStore
}

func NewPreferences(kv domain.KeyValueStore) *Preferences {
	return &Preferences{kv: kv}
}

// DarkMode reports the stored theme; unset or unparsable means light.
func (p *Preferences) DarkMode(ctx context.Context) (bool, error) {
	raw, ok, err := p.kv.Get(ctx, domain.KeyDarkMode)
	if err != nil || !ok {
		return false, err
	}
	on, err := strconv.ParseBool(raw)
	if err != nil {
		return false, nil
	}
	return on, nil
}

func (p *Preferences) SetDarkMode(ctx context.Context, on bool) error {
	return p.kv.Set(ctx, domain.KeyDarkMode, strconv.FormatBool(on))
}
