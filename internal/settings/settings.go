// Package settings stores user preferences as a JSON document on the shelf
// and tracks the data schema version.
package settings

import (
	"maps"
	"slices"
)

// CurrentVersion is the settings document schema version.
const CurrentVersion = 1

// ThemeMode selects the color scheme.
type ThemeMode string

// Theme modes.
const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// Languages lists the supported interface languages.
var Languages = []string{"en", "es"}

// Binding maps a keyboard chord to an action.
type Binding struct {
	Action      string   `json:"action" validate:"required"`
	Keys        []string `json:"keys" validate:"min=1,dive,required"`
	Enabled     bool     `json:"enabled"`
	Description string   `json:"description,omitempty"`
}

// Shortcuts holds the keyboard bindings, keyed by action.
type Shortcuts struct {
	Disabled bool               `json:"disabled"`
	Bindings map[string]Binding `json:"bindings" validate:"dive"`
}

// Capture holds the quick capture flags.
type Capture struct {
	Enabled             bool `json:"enabled"`
	QuickCaptureEnabled bool `json:"quickCaptureEnabled"`
	AutoTag             bool `json:"autoTag"`
	ListenClipboard     bool `json:"listenClipboard"`
}

// Settings is the stored preferences document.
type Settings struct {
	Version   int       `json:"version" validate:"gte=1"`
	Language  string    `json:"language" validate:"oneof=en es"`
	ThemeMode ThemeMode `json:"themeMode" validate:"oneof=light dark system"`
	Shortcuts Shortcuts `json:"shortcuts"`
	Capture   Capture   `json:"capture"`
}

// Defaults returns a fresh copy of the default settings.
func Defaults() Settings {
	return Settings{
		Version:   CurrentVersion,
		Language:  "en",
		ThemeMode: ThemeSystem,
		Shortcuts: Shortcuts{
			Bindings: map[string]Binding{
				"openSettings": {
					Action:      "openSettings",
					Keys:        []string{"ctrl", "comma"},
					Enabled:     true,
					Description: "Open Settings Page",
				},
				"quickCapture": {
					Action:      "quickCapture",
					Keys:        []string{"ctrl", "shift", "Q"},
					Enabled:     true,
					Description: "Trigger Quick Capture",
				},
			},
		},
		Capture: Capture{
			Enabled:             true,
			QuickCaptureEnabled: true,
		},
	}
}

// Actions returns the bound action names in sorted order.
func (s Settings) Actions() []string {
	return slices.Sorted(maps.Keys(s.Shortcuts.Bindings))
}
