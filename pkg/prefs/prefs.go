// Package prefs persists the editor preferences between sessions.
//
// Only layout mode, background, output settings, text overlay and the
// safe-zone flag are stored. Image data and transforms are never persisted.
//
// Backends:
//   - MemoryStore: in-process, for tests and single-shot CLI runs
//   - FileStore: one JSON file per key, for the CLI and single-node servers
//   - RedisStore: shared storage for multi-instance servers
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xob0t/GoCover/pkg/cover"
)

// StorageKey is the fixed key the editor preferences live under.
const StorageKey = "notion-cover-editor"

// Version is the preferences schema version written by this package.
const Version = 1

// Sentinel errors for preference operations.
var (
	// ErrNotFound is returned when no preferences are stored under a key.
	ErrNotFound = errors.New("preferences not found")

	// ErrVersion is returned when stored preferences use a newer schema.
	ErrVersion = errors.New("unsupported preferences version")
)

// Preferences is the persisted subset of the editor state.
type Preferences struct {
	Version      int                  `json:"version"`
	Mode         cover.Mode           `json:"mode"`
	Background   cover.Background     `json:"background"`
	Output       cover.OutputSettings `json:"output"`
	Text         cover.TextOverlay    `json:"text"`
	ShowSafeZone bool                 `json:"showSafeZone"`
}

// Defaults returns the preferences of a fresh editor.
func Defaults() Preferences {
	req := cover.DefaultRequest()
	return FromRequest(req, false)
}

// FromRequest extracts the persisted fields from a render request.
func FromRequest(req cover.RenderRequest, showSafeZone bool) Preferences {
	return Preferences{
		Version:      Version,
		Mode:         req.Mode,
		Background:   req.Background.Normalized(),
		Output:       req.Output,
		Text:         req.Text,
		ShowSafeZone: showSafeZone,
	}
}

// ApplyTo copies the persisted fields onto req, leaving image and transforms untouched.
func (p Preferences) ApplyTo(req *cover.RenderRequest) {
	req.Mode = p.Mode
	req.Background = p.Background
	req.Output = p.Output
	req.Text = p.Text
	cover.ApplyDefaults(req)
}

// Store loads and saves preferences by key.
type Store interface {
	Load(ctx context.Context, key string) (Preferences, error)
	Save(ctx context.Context, key string, p Preferences) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LoadOrDefault loads preferences, returning Defaults when none are stored.
// Other errors are returned alongside the defaults.
func LoadOrDefault(ctx context.Context, s Store, key string) (Preferences, error) {
	p, err := s.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), err
	}
	return p, nil
}

// encode serialises p with the current version stamped.
func encode(p Preferences) ([]byte, error) {
	p.Version = Version
	p.Background = p.Background.Normalized()
	return json.Marshal(p)
}

// decode parses stored preferences and checks the schema version.
func decode(data []byte) (Preferences, error) {
	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	if p.Version > Version {
		return Preferences{}, fmt.Errorf("%w: %d", ErrVersion, p.Version)
	}
	p.Version = Version
	return p, nil
}
