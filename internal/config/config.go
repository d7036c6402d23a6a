/*
Package config handles loading and saving voice-hub configuration.

Configuration is stored in ~/.voice-hub.json using camelCase keys.

Schema:

	{
	  "settings": {
	    "dataDir": "~/.voice-hub",
	    "speakResults": true,
	    "playSoundCues": true,
	    "searchLimit": 10,
	    "persistHelpIndex": false
	  }
	}
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root configuration structure.
type Config struct {
	Settings *Settings `json:"settings,omitempty"`
}

// Settings contains global options.
type Settings struct {
	// DataDir overrides where learning state lives. Empty means
	// ~/.voice-hub.
	DataDir string `json:"dataDir,omitempty"`

	// SpeakResults enables spoken confirmations from built-in commands.
	SpeakResults bool `json:"speakResults"`

	// PlaySoundCues enables short audio cues on success and failure.
	PlaySoundCues bool `json:"playSoundCues"`

	// SearchLimit caps help search results.
	SearchLimit int `json:"searchLimit,omitempty"`

	// PersistHelpIndex keeps the help index on disk instead of rebuilding
	// it in memory at startup.
	PersistHelpIndex bool `json:"persistHelpIndex,omitempty"`
}

// NewConfig creates a configuration with defaults.
func NewConfig() *Config {
	return &Config{
		Settings: &Settings{
			SpeakResults:  true,
			PlaySoundCues: true,
			SearchLimit:   10,
		},
	}
}

// GetDefaultConfigPath returns the path to ~/.voice-hub.json.
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".voice-hub.json"), nil
}

// DataDir resolves the state directory, honoring the override.
func (c *Config) DataDir() (string, error) {
	if c.Settings != nil && c.Settings.DataDir != "" {
		return c.Settings.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".voice-hub"), nil
}

// HistoryDBPath resolves where usage history is persisted.
func (c *Config) HistoryDBPath() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Settings == nil {
		cfg.Settings = NewConfig().Settings
	}
	if cfg.Settings.SearchLimit <= 0 {
		cfg.Settings.SearchLimit = 10
	}
	return &cfg, nil
}

// LoadOrCreate loads the default config, falling back to defaults when
// no file exists yet. A corrupt file is an error, not a silent reset.
func LoadOrCreate() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return NewConfig(), nil
	}
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		return NewConfig(), nil
	}
	return LoadFrom(configPath)
}

// Save writes the configuration atomically: temp file, then rename.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".voice-hub-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
