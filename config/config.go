// Package config loads memhack's settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

const configDir = "memhack"
const configFile = "config.yml"

// Config holds the settings of a session.
type Config struct {
	// MaxRegions bounds how many regions a process may expose to scanning.
	MaxRegions int `yaml:"max_regions"`

	// DisplayLimit is the number of candidates printed after a lookup.
	DisplayLimit int `yaml:"display_limit"`

	// ChunkSize is how many bytes the first pass reads at a time.
	ChunkSize int `yaml:"chunk_size"`

	// PeekSize is the default length of the peek command.
	PeekSize int `yaml:"peek_size"`

	// HistoryFile stores the line editor history. Empty disables history.
	HistoryFile string `yaml:"history_file"`

	// Color enables ANSI colour when the output is a terminal.
	Color bool `yaml:"color"`
}

// Default returns the built-in settings.
func Default() *Config {
	c := &Config{
		MaxRegions:   4096,
		DisplayLimit: 10,
		ChunkSize:    4096,
		PeekSize:     64,
		Color:        true,
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.HistoryFile = filepath.Join(home, ".memhack_history")
	}
	return c
}

// DefaultPath returns the location of the config file under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configDir, configFile), nil
}

// Load reads path over the defaults. When path is empty the default location
// is used and a missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return c, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate rejects settings the session cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxRegions <= 0:
		return fmt.Errorf("max_regions must be positive, got %d", c.MaxRegions)
	case c.DisplayLimit <= 0:
		return fmt.Errorf("display_limit must be positive, got %d", c.DisplayLimit)
	case c.ChunkSize <= 0:
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	case c.PeekSize <= 0:
		return fmt.Errorf("peek_size must be positive, got %d", c.PeekSize)
	}
	return nil
}
