// Package settings stores the player's local preferences in a TOML file.
// The game core never reads them; the terminal shell does.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jvanhorsen/Twixie/internal/words"
)

// Settings are the player's preferences.
type Settings struct {
	Difficulty       words.Difficulty `toml:"difficulty"`
	SoundEnabled     bool             `toml:"sound_enabled"`
	DarkMode         bool             `toml:"dark_mode"`
	HighContrastMode bool             `toml:"high_contrast_mode"`
}

// Default returns the settings of a fresh install.
func Default() Settings {
	return Settings{Difficulty: words.Medium, SoundEnabled: true}
}

// DefaultPath returns $XDG_CONFIG_HOME/twixie/settings.toml.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return "twixie.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "twixie", "settings.toml")
}

// Load reads settings from path. A missing file yields Default(); keys
// absent from the file keep their defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		path = DefaultPath()
	}
	s := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("failed to stat settings: %w", err)
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if s.Difficulty == "" {
		s.Difficulty = words.Medium
	}
	d, err := words.ParseDifficulty(string(s.Difficulty))
	if err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	s.Difficulty = d
	return s, nil
}

// Save writes s to path, creating the parent directory.
func Save(path string, s Settings) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create settings: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return f.Close()
}
