// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; credentials go to the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"dbakit/cli/internal/xdg"
)

// Config holds non-sensitive CLI settings. Command-line flags override
// everything here; these are the fallbacks applied when a flag is unset.
type Config struct {
	LogLevel              string `json:"log_level"`
	Output                string `json:"output"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
	Parallel              int    `json:"parallel"`
	HistoryDisabled       bool   `json:"history_disabled"`
	DefaultDatabase       string `json:"default_database"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		LogLevel:              "info",
		Output:                "table",
		ConnectTimeoutSeconds: 15,
		Parallel:              1,
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults.
func Load() (Config, error) {
	c := Defaults()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Output == "" {
		c.Output = "table"
	}
	if c.ConnectTimeoutSeconds <= 0 {
		c.ConnectTimeoutSeconds = 15
	}
	if c.Parallel <= 0 {
		c.Parallel = 1
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
