package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the optional YAML overlay for table scheduling knobs.
// Zero values leave the environment setting in place.
type Settings struct {
	TickMs              int `yaml:"tick_ms"`
	BroadcastHz         int `yaml:"broadcast_hz"`
	ChampionHoldSeconds int `yaml:"champion_hold_seconds"`
	ScoreWindowHours    int `yaml:"score_window_hours"`
	NameMaxLength       int `yaml:"name_max_length"`
}

// ReadSettings parses a settings file. A missing file yields empty settings.
func ReadSettings(path string) (Settings, error) {
	var s Settings
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// ApplySettingsFile overlays the file's non-zero values onto c.
func (c *Config) ApplySettingsFile(path string) error {
	s, err := ReadSettings(path)
	if err != nil {
		return err
	}
	c.apply(s)
	return nil
}

func (c *Config) apply(s Settings) {
	if s.TickMs > 0 {
		c.TickMs = s.TickMs
	}
	if s.BroadcastHz > 0 {
		c.BroadcastHz = s.BroadcastHz
	}
	if s.ChampionHoldSeconds > 0 {
		c.ChampionHoldSeconds = s.ChampionHoldSeconds
	}
	if s.ScoreWindowHours > 0 {
		c.ScoreWindowHours = s.ScoreWindowHours
	}
	if s.NameMaxLength > 0 {
		c.NameMaxLength = s.NameMaxLength
	}
}
