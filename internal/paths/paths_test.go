package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withPlatform swaps the platform lookups for the duration of a test.
func withPlatform(t *testing.T, goos, home, configDir string) {
	t.Helper()
	saved := platform
	t.Cleanup(func() { platform = saved })
	platform.goos = goos
	platform.homeDir = func() (string, error) { return home, nil }
	platform.userConfigDir = func() (string, error) { return configDir, nil }
}

func TestUserDirs_Linux(t *testing.T) {
	withPlatform(t, "linux", "/home/ana", "")

	t.Run("uses XDG variables when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

		cfg, err := UserConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/recordstore", cfg)

		data, err := UserDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/recordstore", data)
	})

	t.Run("falls back to home when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")

		cfg, err := UserConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ana/.config/recordstore", cfg)

		data, err := UserDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ana/.local/share/recordstore", data)
	})
}

func TestUserDirs_OtherPlatforms(t *testing.T) {
	withPlatform(t, "darwin", "/Users/ana", "/Users/ana/Library/Application Support")

	cfg, err := UserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/Users/ana/Library/Application Support/recordstore", cfg)

	data, err := UserDataDir()
	require.NoError(t, err)
	assert.Equal(t, cfg, data)
}

func TestUserDirs_HomeLookupFails(t *testing.T) {
	withPlatform(t, "linux", "", "")
	platform.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := UserConfigDir()
	assert.Error(t, err)
}

func TestConfigDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "flag wins over env", flag: "/explicit/config", env: "/env/config", want: "/explicit/config"},
		{name: "env wins when flag empty", env: "/env/config", want: "/env/config"},
		{name: "cwd default when both empty", want: filepath.Join(cwd, DefaultConfigDirName)},
		{name: "relative flag becomes absolute", flag: "rel/config", want: filepath.Join(cwd, "rel", "config")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name       string
		flag       string
		configured string
		env        string
		want       string
	}{
		{name: "flag wins over all", flag: "/flag/data", configured: "/config/data", env: "/env/data", want: "/flag/data"},
		{name: "config.yaml wins over env", configured: "/config/data", env: "/env/data", want: "/config/data"},
		{name: "env wins when flag and config empty", env: "/env/data", want: "/env/data"},
		{name: "cwd default when all empty", want: filepath.Join(cwd, DefaultDataDirName)},
		{name: "relative env becomes absolute", env: "rel/env", want: filepath.Join(cwd, "rel", "env")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := DataDir(tt.flag, tt.configured)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
