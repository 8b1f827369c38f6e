// Package paths resolves the configuration and data directories of the
// recordstore CLI. Precedence is flag, then config.yaml (data only), then
// environment, then the default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "recordstore"

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".recordstore"
	DefaultDataDirName   = ".recordstore-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "RECORDSTORE_CONFIG_DIR"
	EnvDataDir   = "RECORDSTORE_DATA_DIR"
)

// platform holds the lookups tests override.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// UserConfigDir returns the per-user configuration directory:
// $XDG_CONFIG_HOME/recordstore or ~/.config/recordstore on Linux, and
// os.UserConfigDir()/recordstore elsewhere.
func UserConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// UserDataDir returns the per-user data directory:
// $XDG_DATA_HOME/recordstore or ~/.local/share/recordstore on Linux, and
// os.UserConfigDir()/recordstore elsewhere.
func UserDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

func userDir(xdgEnv string, homeRel ...string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, homeRel...), AppName)...), nil
}

// ConfigDir resolves the configuration directory: flag, then
// RECORDSTORE_CONFIG_DIR, then $(CWD)/.recordstore.
func ConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDirName, flag, os.Getenv(EnvConfigDir))
}

// DataDir resolves the data directory: flag, then the data_dir value of
// config.yaml, then RECORDSTORE_DATA_DIR, then $(CWD)/.recordstore-db.
func DataDir(flag, configured string) (string, error) {
	return firstAbs(DefaultDataDirName, flag, configured, os.Getenv(EnvDataDir))
}

// firstAbs returns the first non-empty candidate as an absolute path, or
// cwdDefault joined to the working directory.
func firstAbs(cwdDefault string, candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, cwdDefault), nil
}
