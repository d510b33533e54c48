// Package config loads cnlang.yaml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yelongll/rust/pkg/vfs"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "cnlang.yaml"

type Config struct {
	CC          string      `yaml:"cc"`
	CFlags      []string    `yaml:"cflags"`
	Cache       Cache       `yaml:"cache"`
	Log         Log         `yaml:"log"`
	Interpreter Interpreter `yaml:"interpreter"`
}

type Cache struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Log struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

type Interpreter struct {
	MaxCallDepth int `yaml:"max_call_depth"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		CC:     "cc",
		CFlags: []string{"-O2", "-std=c99"},
		Cache: Cache{
			Enabled: true,
			Path:    ".cnlang-cache",
		},
		Log: Log{
			Level: "warn",
			Color: true,
		},
		Interpreter: Interpreter{MaxCallDepth: 10000},
	}
}

// Load reads path from d on top of the defaults. A missing file is not an
// error; unknown keys are.
func Load(d vfs.Disk, path string) (*Config, error) {
	cfg := Default()
	data, err := d.ReadFile(path)
	if errors.Is(err, vfs.ErrFileNotFound) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment: CC selects the
// compiler and CNLANG_CACHE the cache directory ("off" disables it).
func (c *Config) ApplyEnv(getenv func(string) string) {
	if cc := strings.TrimSpace(getenv("CC")); cc != "" {
		c.CC = cc
	}
	switch dir := strings.TrimSpace(getenv("CNLANG_CACHE")); dir {
	case "":
	case "off":
		c.Cache.Enabled = false
	default:
		c.Cache.Enabled = true
		c.Cache.Path = dir
	}
}

// SlogLevel maps Log.Level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn
	}
	return level
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.CC) == "" {
		return errors.New("cc must not be empty")
	}
	if c.Interpreter.MaxCallDepth <= 0 {
		return fmt.Errorf("interpreter.max_call_depth must be positive, got %d", c.Interpreter.MaxCallDepth)
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return errors.New("cache.path is required when the cache is enabled")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}
