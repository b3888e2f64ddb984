// Package config resolves where lutra keeps its state and loads the user's
// settings file. Every path honors an environment override so tests and
// sandboxed installs can relocate state without touching the code.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Paths holds all resolved lutra state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	Home         string // ~/.local/share/lutra or LUTRA_HOME
	DBPath       string // library.db or LUTRA_DB_PATH
	SocketPath   string // lutra.sock or LUTRA_SOCKET_PATH
	LockPath     string // lutra.lock or LUTRA_LOCK_PATH
	SettingsPath string // settings.toml or LUTRA_SETTINGS_PATH
	GamesDir     string // games/ (per-game config files)
	RuntimeDir   string // runtime/ (managed runtime libraries)
	CacheDir     string // cache/ (downloaded installers, API responses)
}

// ResolvePaths returns all lutra paths, respecting env var overrides.
// Environment variables:
//   - LUTRA_HOME: base directory for all lutra state
//     (default: $XDG_DATA_HOME/lutra, falling back to ~/.local/share/lutra)
//   - LUTRA_DB_PATH: game library database (default: $LUTRA_HOME/library.db)
//   - LUTRA_SOCKET_PATH: instance socket (default: $LUTRA_HOME/lutra.sock)
//   - LUTRA_LOCK_PATH: instance lock file (default: $LUTRA_HOME/lutra.lock)
//   - LUTRA_SETTINGS_PATH: settings file (default: $LUTRA_HOME/settings.toml)
//
// A .env file in the working directory is loaded first (without overriding
// variables already set), so overrides can live next to a checkout.
func ResolvePaths() (*Paths, error) {
	_ = godotenv.Load()

	home, err := resolveHome()
	if err != nil {
		return nil, err
	}

	return &Paths{
		Home:         home,
		DBPath:       resolvePathWithEnv("LUTRA_DB_PATH", home, "library.db"),
		SocketPath:   resolvePathWithEnv("LUTRA_SOCKET_PATH", home, "lutra.sock"),
		LockPath:     resolvePathWithEnv("LUTRA_LOCK_PATH", home, "lutra.lock"),
		SettingsPath: resolvePathWithEnv("LUTRA_SETTINGS_PATH", home, "settings.toml"),
		GamesDir:     filepath.Join(home, "games"),
		RuntimeDir:   filepath.Join(home, "runtime"),
		CacheDir:     filepath.Join(home, "cache"),
	}, nil
}

// EnsureDirs creates the state directories that must exist before first use.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.Home, p.GamesDir, p.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir %s: %w", dir, err)
		}
	}
	return nil
}

// resolveHome returns the lutra home directory from LUTRA_HOME, XDG_DATA_HOME,
// or ~/.local/share.
func resolveHome() (string, error) {
	if v := os.Getenv("LUTRA_HOME"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "lutra"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "lutra"), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
