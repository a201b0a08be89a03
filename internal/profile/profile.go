package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tekai/internal/storage"
)

const DefaultName = "User"

type Profile struct {
	DisplayName string
}

// stored mirrors the saved document. given_name is read for profiles written by
// sign-in providers; it is never written back.
type stored struct {
	Name      string `json:"name,omitempty"`
	GivenName string `json:"given_name,omitempty"`
}

// Name returns the display name or DefaultName when none is set.
func (p Profile) Name() string {
	if n := strings.TrimSpace(p.DisplayName); n != "" {
		return n
	}
	return DefaultName
}

// Load reads the saved profile. ok is false when no usable profile exists,
// which is the signal to ask the user for a name.
func Load(ctx context.Context, store storage.Store) (p Profile, ok bool, err error) {
	if store == nil {
		return Profile{}, false, nil
	}
	raw, err := store.Get(ctx, storage.KeyProfile)
	if errors.Is(err, storage.ErrNotFound) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("read profile: %w", err)
	}
	var s stored
	if err := json.Unmarshal(raw, &s); err != nil {
		return Profile{}, false, fmt.Errorf("decode profile: %w", err)
	}
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = strings.TrimSpace(s.GivenName)
	}
	if name == "" {
		return Profile{}, false, nil
	}
	return Profile{DisplayName: name}, true, nil
}

func Save(ctx context.Context, store storage.Store, p Profile) error {
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		return errors.New("display name is empty")
	}
	raw, err := json.Marshal(stored{Name: name})
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if store == nil {
		return nil
	}
	if err := store.Set(ctx, storage.KeyProfile, raw); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}
