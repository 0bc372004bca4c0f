// Shared helpers for mangashelf CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/mangashelf/internal/library"
	"github.com/mesh-intelligence/mangashelf/internal/settings"
	"github.com/mesh-intelligence/mangashelf/pkg/sqlite"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// exitError carries the exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error { return &exitError{code: exitSysError, err: err} }

// exitCode maps an error to the process exit code. Storage failures are
// system errors; everything else the user can fix by changing the input.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrStorageFailure) {
		return exitSysError
	}
	return exitUserError
}

// printError writes err to stderr, as a JSON object in --json mode.
func (a *app) printError(err error) {
	if a.flags.jsonMode {
		data, _ := json.Marshal(map[string]any{"error": err.Error(), "code": exitCode(err)})
		fmt.Fprintln(a.errOut, string(data))
		return
	}
	fmt.Fprintln(a.errOut, "error:", err)
}

// open attaches the backend and builds the engine on first use. The
// collation language comes from config.yaml when set, otherwise from the
// stored settings.
func (a *app) open() (*library.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	cfg, err := a.backendConfig()
	if err != nil {
		return nil, userError(fmt.Errorf("config: %w", err))
	}
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}
	a.backend = backend

	lang := a.cfg.GetString(cfgKeyLanguage)
	if lang == "" {
		st, err := settings.NewStore(backend, a.log).Load()
		if err != nil {
			a.log.Warn("settings unreadable, using defaults", "error", err)
			st = settings.Defaults()
		}
		lang = st.Language
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, userError(fmt.Errorf("language %q: %w", lang, err))
	}

	engine, err := library.Open(backend, library.WithLogger(a.log), library.WithLanguage(tag))
	if err != nil {
		return nil, sysError(err)
	}
	a.engine = engine
	a.log.Debug("backend attached", "data_dir", cfg.DataDir, "language", tag.String())
	return engine, nil
}

// settingsStore returns a settings store over the attached backend.
func (a *app) settingsStore() (*settings.Store, error) {
	if _, err := a.open(); err != nil {
		return nil, err
	}
	return settings.NewStore(a.backend, a.log), nil
}

// parseID parses a positive record id argument.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError(fmt.Errorf("%w: %s id %q", types.ErrInvalidInput, kind, s))
	}
	return id, nil
}

func parseIDs(kind string, args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := parseID(kind, s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// exactArgs is cobra.ExactArgs with the error marked as a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return wrapArgs(cobra.RangeArgs(lo, hi))
}

func minArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.MinimumNArgs(n))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return userError(err)
		}
		return nil
	}
}
