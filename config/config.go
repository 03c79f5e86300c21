package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tabformat/logger"
	"tabformat/types"
)

// Config is the on-disk configuration
type Config struct {
	// Separator is the preferred separator; empty means none is configured
	Separator string          `toml:"separator,omitempty"`
	Width     types.WidthMode `toml:"width,omitempty"`
	Log       LogConfig       `toml:"log"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level   string `toml:"level,omitempty"`
	File    string `toml:"file,omitempty"`
	MaxSize int64  `toml:"max_size,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() Config {
	return Config{
		Width: types.WidthChars,
		Log:   LogConfig{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/tabformat/config.toml (or the
// platform equivalent)
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, "tabformat", "config.toml"), nil
}

// Load reads and validates the config at path. A missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields
func (c Config) Validate() error {
	switch c.Width {
	case types.WidthChars, types.WidthCells:
	default:
		return fmt.Errorf("invalid width %q (want %s or %s)", c.Width, types.WidthChars, types.WidthCells)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid [log].level: %w", err)
	}
	if c.Log.MaxSize < 0 {
		return fmt.Errorf("invalid [log].max_size: %d", c.Log.MaxSize)
	}
	return nil
}

// Save writes cfg to path, replacing the file atomically
func Save(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
