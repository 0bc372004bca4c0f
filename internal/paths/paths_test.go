package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHome points the platform lookups at dir for the duration of the test.
func fakeHome(t *testing.T, dir string) {
	t.Helper()
	saved := platformDir
	platformDir.homeDir = func() (string, error) { return dir, nil }
	platformDir.userConfigDir = func() (string, error) { return filepath.Join(dir, "Library", "Application Support"), nil }
	t.Cleanup(func() { platformDir = saved })
}

func TestDefaultConfigDir(t *testing.T) {
	home := t.TempDir()
	fakeHome(t, home)

	if runtime.GOOS != "linux" {
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "Library", "Application Support", appName), got)
		return
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/mangashelf", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "mangashelf"), got)
	})
}

func TestDefaultConfigDirHomeError(t *testing.T) {
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })
	boom := errors.New("no home")
	platformDir.homeDir = func() (string, error) { return "", boom }
	platformDir.userConfigDir = func() (string, error) { return "", boom }
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.ErrorIs(t, err, boom)
}

func TestResolveConfigDir(t *testing.T) {
	home := t.TempDir()
	fakeHome(t, home)
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string // substring the result must contain
	}{
		{
			name:    "flag wins over env",
			flag:    "/explicit/config",
			envVal:  "/env/config",
			wantSub: "/explicit/config",
		},
		{
			name:    "env wins when flag empty",
			envVal:  "/env/config",
			wantSub: "/env/config",
		},
		{
			name:    "platform default when both empty",
			wantSub: appName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
			assert.True(t, filepath.IsAbs(got))
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		envVal        string
		want          string
	}{
		{
			name:          "flag wins over all",
			flag:          "/flag/data",
			configYAMLVal: "/config/data",
			envVal:        "/env/data",
			want:          "/flag/data",
		},
		{
			name:          "config.yaml wins over env",
			configYAMLVal: "/config/data",
			envVal:        "/env/data",
			want:          "/config/data",
		},
		{
			name:   "env wins when flag and config empty",
			envVal: "/env/data",
			want:   "/env/data",
		},
		{
			name: "CWD default when all empty",
			want: filepath.Join(cwd, DefaultDataDirName),
		},
		{
			name: "relative flag becomes absolute",
			flag: "shelf",
			want: filepath.Join(cwd, "shelf"),
		},
		{
			name:          "relative config value becomes absolute",
			configYAMLVal: "lib/db",
			want:          filepath.Join(cwd, "lib", "db"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configYAMLVal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveConfigDirRelativeEnv(t *testing.T) {
	t.Setenv(EnvConfigDir, "relative/env")
	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}
