// Package config loads the YAML configuration of the narc command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meigma/narc/compress"
)

// Config holds command defaults. Command-line flags override it.
type Config struct {
	// ByteOrder is "little" or "big"; used for newly packed archives.
	ByteOrder string `yaml:"byte_order"`
	// Version is the header version of newly packed archives.
	Version uint16 `yaml:"version"`
	// Alignment pads payload entries of newly packed archives to 128 bytes.
	Alignment bool `yaml:"alignment"`
	// Compression is applied when writing archives: none, zstd or lz4.
	Compression string `yaml:"compression"`
	// Exclude lists patterns skipped when packing. A trailing "/" matches
	// directories; other patterns match base names, or the whole relative
	// path when they contain "/".
	Exclude []string `yaml:"exclude"`
	// Workers bounds parallel extraction; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Overwrite replaces existing files on extraction.
	Overwrite bool `yaml:"overwrite"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		ByteOrder:   "little",
		Version:     0x0100,
		Compression: "none",
		Exclude: []string{
			".git/",
			".svn/",
			"*.tmp",
			"*.swp",
			".DS_Store",
			"Thumbs.db",
		},
		LogLevel: "info",
	}
}

// LoadConfig reads the file at path over the defaults. A missing file is not
// an error. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch strings.ToLower(c.ByteOrder) {
	case "little", "big":
	default:
		return fmt.Errorf("config: byte_order must be little or big, got %q", c.ByteOrder)
	}
	if _, err := compress.ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", s)
	}
	return level, nil
}
