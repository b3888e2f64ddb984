package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Settings is the user-editable configuration, stored as TOML.
type Settings struct {
	Website WebsiteSettings `toml:"website"`
	Steam   SteamSettings   `toml:"steam"`
	System  SystemSettings  `toml:"system"`
}

// WebsiteSettings configure the lutris.net API client.
type WebsiteSettings struct {
	URL string `toml:"url"`
}

// SteamSettings configure Steam library discovery.
type SteamSettings struct {
	// ExtraDirs lists additional steamapps directories to scan, typically
	// inside Wine prefixes. Games found there are tagged platform "windows".
	ExtraDirs []string `toml:"extra_dirs"`
}

// SystemSettings configure how games are launched.
type SystemSettings struct {
	RuntimeEnabled bool `toml:"runtime_enabled"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		Website: WebsiteSettings{URL: "https://lutris.net"},
		System:  SystemSettings{RuntimeEnabled: true},
	}
}

// LoadSettings reads the settings file at path. A missing file yields the
// defaults; a present file is unmarshaled over them, so keys the user never
// wrote keep their default values.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes the settings file, creating it on first run so users
// have something to edit.
func SaveSettings(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
