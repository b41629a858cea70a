// Package config loads the optional waitfor defaults file and hands its
// values to the same parsers the command-line flags go through.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/benaskins/waitfor/internal/logging"
	"github.com/benaskins/waitfor/internal/wait"
)

// Config holds user defaults loaded from ~/.waitfor/config.yaml. Durations
// are kept as the raw text so they go through the same parser as flags.
type Config struct {
	Timeout   string `yaml:"timeout"`
	Delay     string `yaml:"delay"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultPath returns the default config file path: ~/.waitfor/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".waitfor", "config.yaml")
}

// Load reads a YAML config file from path. A missing, empty or all-comment
// file yields an empty Config and no error. Log settings are checked here;
// timeout and delay are checked when they are applied to a request.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	switch logging.Format(strings.ToLower(c.LogFormat)) {
	case "", logging.FormatAuto, logging.FormatJSON, logging.FormatText:
	default:
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	return nil
}

// WaitDefaults returns the file's wait settings as unparsed options, to be
// applied to a request before the flags are.
func (c *Config) WaitDefaults() wait.RawOptions {
	return wait.RawOptions{Timeout: c.Timeout, Delay: c.Delay}
}

// Logging overrides base with the file's log settings and returns it.
func (c *Config) Logging(base *logging.Config) *logging.Config {
	if c.LogLevel != "" {
		base.Level = strings.ToLower(c.LogLevel)
	}
	if c.LogFormat != "" {
		base.Format = logging.Format(strings.ToLower(c.LogFormat))
	}
	return base
}
