package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mangashelf/internal/settings"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current preferences",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.settingsStore()
			if err != nil {
				return err
			}
			st, err := store.Load()
			if err != nil {
				return err
			}
			return a.printSettings(st)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Long: `Change one preference by its dotted key.

Keys:
  language                      en or es
  themeMode                     light, dark, or system
  capture.enabled               true or false
  capture.quickCaptureEnabled   true or false
  capture.autoTag               true or false
  capture.listenClipboard       true or false
  shortcuts.disabled            true or false
  shortcuts.<action>.enabled    true or false
  shortcuts.<action>.keys       comma separated keys, such as ctrl,shift,Q
  shortcuts.<action>.description`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.settingsStore()
			if err != nil {
				return err
			}
			st, err := store.Set(args[0], args[1])
			if err != nil {
				return err
			}
			return a.printSettings(st)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default preferences",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.settingsStore()
			if err != nil {
				return err
			}
			st, err := store.Reset()
			if err != nil {
				return err
			}
			return a.printSettings(st)
		},
	})
	return cmd
}

func (a *app) printSettings(st settings.Settings) error {
	if a.flags.jsonMode {
		return a.printJSON(st)
	}
	muted := a.styles().muted
	line := func(k string, v any) {
		fmt.Fprintf(a.out, "%s %v\n", muted.Render(fmt.Sprintf("%-28s", k)), v)
	}
	line("version", st.Version)
	line("language", st.Language)
	line("themeMode", st.ThemeMode)
	line("capture.enabled", st.Capture.Enabled)
	line("capture.quickCaptureEnabled", st.Capture.QuickCaptureEnabled)
	line("capture.autoTag", st.Capture.AutoTag)
	line("capture.listenClipboard", st.Capture.ListenClipboard)
	line("shortcuts.disabled", st.Shortcuts.Disabled)
	for _, action := range st.Actions() {
		b := st.Shortcuts.Bindings[action]
		state := "on"
		if !b.Enabled {
			state = "off"
		}
		line("shortcuts."+action, fmt.Sprintf("%s [%s] %s", strings.Join(b.Keys, "+"), state, b.Description))
	}
	return nil
}
