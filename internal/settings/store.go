package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/mangashelf/internal/logger"
	"github.com/mesh-intelligence/mangashelf/internal/validation"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Document keys on the shelf.
const (
	SettingsKey    = "settings"
	DataVersionKey = "dataVersion"
)

// LatestDataVersion is the data schema version this build writes.
const LatestDataVersion = 1

// Documents is the part of types.Shelf the store reads and writes.
type Documents interface {
	ReadDocument(key string) ([]byte, error)
	WriteDocument(key string, data []byte) error
}

// migration upgrades a raw settings document from version n to n+1.
type migration func(doc map[string]any) error

// dataMigration upgrades stored data from version n to n+1.
type dataMigration func(docs Documents) error

// Store loads and saves settings.
type Store struct {
	docs     Documents
	log      *slog.Logger
	validate *validation.Validator

	version    int
	migrations map[int]migration

	dataVersion    int
	dataMigrations map[int]dataMigration
}

// NewStore creates a Store over docs. A nil logger discards output.
func NewStore(docs Documents, log *slog.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{
		docs:           docs,
		log:            log,
		validate:       validation.New(),
		version:        CurrentVersion,
		migrations:     map[int]migration{},
		dataVersion:    LatestDataVersion,
		dataMigrations: map[int]dataMigration{},
	}
}

// Load returns the stored settings layered over the defaults. Fields and
// bindings missing from the stored document keep their default values. A
// document older than the current version is migrated and rewritten. With
// nothing stored, Load returns the defaults without writing.
func (s *Store) Load() (Settings, error) {
	raw, err := s.docs.ReadDocument(SettingsKey)
	if errors.Is(err, types.ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("%w: reading settings: %w", types.ErrStorageFailure, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Settings{}, fmt.Errorf("%w: settings document: %w", types.ErrInvalidInput, err)
	}
	stored := cast.ToInt(doc["version"])

	migrated := false
	if stored < s.version {
		if err := s.migrate(doc, stored); err != nil {
			return Settings{}, err
		}
		migrated = true
	} else if stored > s.version {
		s.log.Warn("settings written by a newer version", "stored", stored, "current", s.version)
	}

	out := Defaults()
	upgraded, err := json.Marshal(doc)
	if err != nil {
		return Settings{}, fmt.Errorf("encoding settings: %w", err)
	}
	if err := json.Unmarshal(upgraded, &out); err != nil {
		return Settings{}, fmt.Errorf("%w: settings document: %w", types.ErrInvalidInput, err)
	}
	if err := s.validate.Validate(out); err != nil {
		return Settings{}, err
	}

	if migrated {
		if err := s.write(out); err != nil {
			return Settings{}, err
		}
		s.log.Info("settings migrated", "from", stored, "to", s.version)
	}
	return out, nil
}

// migrate runs each step from version from up to the current version.
// Versions without a registered step need no change.
func (s *Store) migrate(doc map[string]any, from int) error {
	for v := from; v < s.version; v++ {
		if step, ok := s.migrations[v]; ok {
			if err := step(doc); err != nil {
				return fmt.Errorf("migrating settings from v%d: %w", v, err)
			}
		}
	}
	doc["version"] = s.version
	return nil
}

// Save validates st and stores it. A zero version is set to the current
// version.
func (s *Store) Save(st Settings) error {
	if st.Version == 0 {
		st.Version = s.version
	}
	if err := s.validate.Validate(st); err != nil {
		return err
	}
	return s.write(st)
}

func (s *Store) write(st Settings) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := s.docs.WriteDocument(SettingsKey, data); err != nil {
		return fmt.Errorf("%w: writing settings: %w", types.ErrStorageFailure, err)
	}
	return nil
}

// Reset stores and returns the defaults.
func (s *Store) Reset() (Settings, error) {
	d := Defaults()
	if err := s.write(d); err != nil {
		return Settings{}, err
	}
	s.log.Info("settings reset")
	return d, nil
}

// Set changes one setting by its dotted key and stores the result.
//
// Keys: language, themeMode, capture.enabled, capture.quickCaptureEnabled,
// capture.autoTag, capture.listenClipboard, shortcuts.disabled,
// shortcuts.<action>.enabled, shortcuts.<action>.keys (comma separated),
// and shortcuts.<action>.description.
func (s *Store) Set(key, value string) (Settings, error) {
	st, err := s.Load()
	if err != nil {
		return Settings{}, err
	}
	if err := apply(&st, key, value); err != nil {
		return Settings{}, err
	}
	if err := s.Save(st); err != nil {
		return Settings{}, err
	}
	s.log.Debug("setting changed", "key", key, "value", value)
	return st, nil
}

func apply(st *Settings, key, value string) error {
	parts := strings.Split(key, ".")
	switch {
	case key == "language":
		st.Language = value
	case key == "themeMode":
		st.ThemeMode = ThemeMode(value)
	case parts[0] == "capture" && len(parts) == 2:
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		switch parts[1] {
		case "enabled":
			st.Capture.Enabled = b
		case "quickCaptureEnabled":
			st.Capture.QuickCaptureEnabled = b
		case "autoTag":
			st.Capture.AutoTag = b
		case "listenClipboard":
			st.Capture.ListenClipboard = b
		default:
			return unknownKey(key)
		}
	case key == "shortcuts.disabled":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		st.Shortcuts.Disabled = b
	case parts[0] == "shortcuts" && len(parts) == 3:
		return applyBinding(st, parts[1], parts[2], key, value)
	default:
		return unknownKey(key)
	}
	return nil
}

// applyBinding edits one binding, creating it when the action is new.
func applyBinding(st *Settings, action, field, key, value string) error {
	b, ok := st.Shortcuts.Bindings[action]
	if !ok {
		b = Binding{Action: action, Enabled: true}
	}
	switch field {
	case "enabled":
		v, err := parseBool(key, value)
		if err != nil {
			return err
		}
		b.Enabled = v
	case "keys":
		b.Keys = nil
		for k := range strings.SplitSeq(value, ",") {
			if k = strings.TrimSpace(k); k != "" {
				b.Keys = append(b.Keys, k)
			}
		}
	case "description":
		b.Description = value
	default:
		return unknownKey(key)
	}
	if st.Shortcuts.Bindings == nil {
		st.Shortcuts.Bindings = map[string]Binding{}
	}
	st.Shortcuts.Bindings[action] = b
	return nil
}

func parseBool(key, value string) (bool, error) {
	b, err := cast.ToBoolE(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s wants true or false, got %q", types.ErrInvalidInput, key, value)
	}
	return b, nil
}

func unknownKey(key string) error {
	return fmt.Errorf("%w: unknown setting %q", types.ErrInvalidInput, key)
}

// InitDataVersion brings stored data up to LatestDataVersion. It reads the
// recorded version (zero when absent), runs each migration step in order,
// records the latest version, and returns it.
func (s *Store) InitDataVersion() (int, error) {
	stored := 0
	raw, err := s.docs.ReadDocument(DataVersionKey)
	switch {
	case errors.Is(err, types.ErrNotFound):
	case err != nil:
		return 0, fmt.Errorf("%w: reading data version: %w", types.ErrStorageFailure, err)
	default:
		if err := json.Unmarshal(raw, &stored); err != nil {
			return 0, fmt.Errorf("%w: data version %s: %w", types.ErrInvalidInput, raw, err)
		}
	}
	if stored >= s.dataVersion {
		return stored, nil
	}

	for v := stored; v < s.dataVersion; v++ {
		if step, ok := s.dataMigrations[v]; ok {
			if err := step(s.docs); err != nil {
				return stored, fmt.Errorf("migrating data from v%d: %w", v, err)
			}
		}
	}
	data, err := json.Marshal(s.dataVersion)
	if err != nil {
		return stored, fmt.Errorf("encoding data version: %w", err)
	}
	if err := s.docs.WriteDocument(DataVersionKey, data); err != nil {
		return stored, fmt.Errorf("%w: writing data version: %w", types.ErrStorageFailure, err)
	}
	s.log.Info("data version updated", "from", stored, "to", s.dataVersion)
	return s.dataVersion, nil
}
