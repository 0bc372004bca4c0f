// Package paths locates the two directories mangashelf uses: the config
// directory holding config.yaml, and the data directory holding the library
// (mangas.jsonl, tags.jsonl, documents.jsonl and the SQLite cache).
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the library directory created in the working
// directory when nothing else names one, so a library travels with the
// folder it lives in.
const DefaultDataDirName = ".mangashelf-db"

// appName names the config.yaml directory under the platform config root.
const appName = "mangashelf"

// Environment overrides, also honored by the CLI's viper config.
const (
	EnvConfigDir = "MANGASHELF_CONFIG_DIR"
	EnvDataDir   = "MANGASHELF_DATA_DIR"
)

// platformDir is swapped out by tests that fake a home directory.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns where config.yaml lives when nothing overrides
// it: $XDG_CONFIG_HOME/mangashelf or ~/.config/mangashelf on Linux, and
// mangashelf under os.UserConfigDir elsewhere.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
}

// ResolveConfigDir picks the config directory from --config-dir, then
// MANGASHELF_CONFIG_DIR, then DefaultConfigDir. Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the library directory from --data-dir, then the
// data_dir value read from config.yaml, then MANGASHELF_DATA_DIR, and
// finally .mangashelf-db in the working directory.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
