// Package settings persists user preferences and budget caps.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"finledger/internal/core"
	"finledger/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	blobs storage.BlobStore
	// onChange runs after every successful write.
	onChange func(core.Settings)
}

func NewStore(blobs storage.BlobStore) *Store {
	return &Store{blobs: blobs}
}

// OnChange registers fn to run after each successful write.
func (s *Store) OnChange(fn func(core.Settings)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load returns the stored settings. An absent or malformed blob yields
// the defaults; invalid fields fall back individually.
func (s *Store) Load(ctx context.Context) core.Settings {
	raw, ok, err := s.blobs.Get(ctx, storage.SettingsKey)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read settings, using defaults", "error", err)
		return core.DefaultSettings()
	}
	if !ok {
		return core.DefaultSettings()
	}
	return decode(ctx, raw)
}

// decode reads each field on its own so one bad value does not discard
// the rest.
func decode(ctx context.Context, raw []byte) core.Settings {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		slog.WarnContext(ctx, "Malformed settings blob, using defaults", "error", err)
		return core.DefaultSettings()
	}

	var out core.Settings
	_ = json.Unmarshal(fields["name"], &out.Name)
	_ = json.Unmarshal(fields["theme"], &out.Theme)
	_ = json.Unmarshal(fields["warnOverCap"], &out.WarnOverCap)

	var budget map[string]json.RawMessage
	if err := json.Unmarshal(fields["budget"], &budget); err == nil {
		out.Budget = make(map[string]int64, len(budget))
		for k, v := range budget {
			var f float64
			if err := json.Unmarshal(v, &f); err != nil || math.IsNaN(f) || f < 0 {
				continue
			}
			out.Budget[k] = int64(math.Round(f))
		}
	}
	return out.Normalize()
}

func (s *Store) write(ctx context.Context, st core.Settings) (core.Settings, error) {
	st = st.Normalize()
	data, err := json.Marshal(st)
	if err != nil {
		return core.Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.blobs.Put(ctx, storage.SettingsKey, data); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	if s.onChange != nil {
		s.onChange(st)
	}
	return st, nil
}

// Save normalises st and replaces the stored settings.
func (s *Store) Save(ctx context.Context, st core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.write(ctx, st)
	return err
}

// Reset stores and returns the defaults.
func (s *Store) Reset(ctx context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slog.InfoContext(ctx, "Settings reset to defaults")
	return s.write(ctx, core.DefaultSettings())
}

// Merge applies patch over the stored settings and saves the result.
func (s *Store) Merge(ctx context.Context, patch core.SettingsPatch) (core.Settings, error) {
	if err := patch.Validate(); err != nil {
		return core.Settings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, patch.Apply(s.Load(ctx)))
}
