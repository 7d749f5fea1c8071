package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "narc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_ValidConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
byte_order: big
version: 258
alignment: true
compression: zstd
exclude:
  - "*.tmp"
  - build/
workers: 4
overwrite: true
log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		ByteOrder:   "big",
		Version:     258,
		Alignment:   true,
		Compression: "zstd",
		Exclude:     []string{"*.tmp", "build/"},
		Workers:     4,
		Overwrite:   true,
		LogLevel:    "debug",
	}, cfg)
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(writeConfig(t, "alignment: true\n"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.True(t, cfg.Alignment)
	assert.Equal(t, def.ByteOrder, cfg.ByteOrder)
	assert.Equal(t, def.Version, cfg.Version)
	assert.Equal(t, def.Exclude, cfg.Exclude)
}

func TestLoadConfig_NonExistentFile(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "exclude: [unterminated\n"},
		{"byte order", "byte_order: middle\n"},
		{"compression", "compression: yaz0\n"},
		{"log level", "log_level: chatty\n"},
		{"workers", "workers: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}
