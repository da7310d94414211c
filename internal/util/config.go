// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/imdario/mergo"
	"gopkg.in/yaml.v3"

	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

// Config holds golob configuration settings
type Config struct {
	VenvPath    string   `yaml:"venv_path" description:"Directory searched first for bare require() names (relative to data dir)"`
	LibraryDirs []string `yaml:"library_dirs" description:"Directories prepended to the native library search path"`

	Width  int    `yaml:"width" description:"Output width when no input image fixes it" default:"1920"`
	Height int    `yaml:"height" description:"Output height when no input image fixes it" default:"1080"`
	Format string `yaml:"format" description:"Pixel format of rendered output (rgba8, rgba16, rgba32, argb8, argb16ae, argb32)" default:"rgba8"`

	AdoptBounds string `yaml:"adopt_bounds" description:"Whether range endpoints survive a reload (exclusive, inclusive)" default:"exclusive"`
	LogLevel    string `yaml:"log_level" description:"Log level (debug, info, warn, error)" default:"info"`

	WatchDebounce time.Duration `yaml:"watch_debounce" description:"Quiet period before a changed script is reloaded" default:"250ms"`
	HistoryFile   string        `yaml:"history_file" description:"Console history file (relative to data dir)" default:".golob_history"`
}

// DefaultConfig returns the default configuration for runtime use.
func DefaultConfig() Config {
	return Config{
		Width:         1920,
		Height:        1080,
		Format:        pixel.Rgba8.String(),
		AdoptBounds:   variant.Exclusive.String(),
		LogLevel:      "info",
		WatchDebounce: 250 * time.Millisecond,
		HistoryFile:   ".golob_history",
	}
}

// GetDataDir returns the data directory.
// Resolution order: -d flag > GOLOB_DATA env var > ~/.golob
func GetDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envDir := os.Getenv("GOLOB_DATA"); envDir != "" {
		return envDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "" // Can't determine default
	}
	return filepath.Join(home, ".golob")
}

// GetConfigPath returns the path to the config file in the data directory.
// Returns empty string if dataDir is empty.
func GetConfigPath(dataDir string) string {
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, "config.yaml")
}

// ResolvePath resolves a path relative to baseDir if not absolute.
// Returns path unchanged if empty or already absolute.
func ResolvePath(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// LoadConfig loads configuration from config.yaml in the data directory.
// Relative paths are resolved against the data directory.
func LoadConfig(dataDir string) (Config, error) {
	config, err := LoadConfigFromPath(GetConfigPath(dataDir))
	if err != nil {
		return config, err
	}

	config.VenvPath = ResolvePath(config.VenvPath, dataDir)
	config.HistoryFile = ResolvePath(config.HistoryFile, dataDir)
	for i, dir := range config.LibraryDirs {
		config.LibraryDirs[i] = ResolvePath(dir, dataDir)
	}
	return config, nil
}

// LoadConfigFromPath loads configuration from the specified path.
// A missing file or empty path yields the defaults. Values absent from the
// file are filled from DefaultConfig, then every field is validated and all
// problems are reported together.
func LoadConfigFromPath(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := mergo.Merge(&config, DefaultConfig()); err != nil {
		return Config{}, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Width <= 0 || c.Height <= 0 {
		result = multierror.Append(result, fmt.Errorf("output size %dx%d must be positive", c.Width, c.Height))
	}
	if _, err := pixel.ParseFormat(c.Format); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := variant.ParseBounds(c.AdoptBounds); err != nil {
		result = multierror.Append(result, err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel))
	}
	if c.WatchDebounce < 0 {
		result = multierror.Append(result, fmt.Errorf("watch_debounce must not be negative"))
	}

	return result.ErrorOrNil()
}

// PixelFormat returns the configured output format. Validate first.
func (c *Config) PixelFormat() pixel.Format {
	f, _ := pixel.ParseFormat(c.Format)
	return f
}

// Bounds returns the configured adoption policy. Validate first.
func (c *Config) Bounds() variant.Bounds {
	b, _ := variant.ParseBounds(c.AdoptBounds)
	return b
}

// Size returns the configured default output size.
func (c *Config) Size() pixel.Size {
	return pixel.Size{Width: c.Width, Height: c.Height}
}

// DisplayConfig writes the data directory, config file location and the
// effective configuration as YAML.
func DisplayConfig(w io.Writer, dataDir string) error {
	config, err := LoadConfig(dataDir)

	fmt.Fprintf(w, "# data dir:    %s\n", dataDir)
	fmt.Fprintf(w, "# config file: %s\n", GetConfigPath(dataDir))
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return err
	}
	return enc.Close()
}
