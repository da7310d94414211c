// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	want := DefaultConfig()
	want.HistoryFile = cfg.HistoryFile // resolved against the data dir
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	dir := writeConfig(t, `
width: 640
format: rgba32
venv_path: libs
watch_debounce: 1s
library_dirs: [native, /opt/lib]
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Width != 640 || cfg.Height != 1080 {
		t.Errorf("size = %dx%d, want 640x1080", cfg.Width, cfg.Height)
	}
	if cfg.PixelFormat() != pixel.Rgba32 {
		t.Errorf("PixelFormat() = %v, want rgba32", cfg.PixelFormat())
	}
	if cfg.Bounds() != variant.Exclusive {
		t.Errorf("Bounds() = %v, want exclusive", cfg.Bounds())
	}
	if cfg.WatchDebounce != time.Second {
		t.Errorf("WatchDebounce = %v, want 1s", cfg.WatchDebounce)
	}
	if cfg.VenvPath != filepath.Join(dir, "libs") {
		t.Errorf("VenvPath = %q, want resolved against data dir", cfg.VenvPath)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "native"), "/opt/lib"}, cfg.LibraryDirs); diff != "" {
		t.Errorf("LibraryDirs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigReportsEveryProblem(t *testing.T) {
	dir := writeConfig(t, `
format: bgr24
adopt_bounds: sideways
log_level: loud
`)

	_, err := LoadConfig(dir)
	if err == nil {
		t.Fatal("LoadConfig() should fail")
	}
	for _, want := range []string{"bgr24", "sideways", "loud"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadConfigParseError(t *testing.T) {
	dir := writeConfig(t, "width: [1, 2")
	if _, err := LoadConfig(dir); err == nil {
		t.Error("LoadConfig() should fail on malformed YAML")
	}
}

func TestGetDataDir(t *testing.T) {
	t.Setenv("GOLOB_DATA", "/env/dir")
	if got := GetDataDir("/flag/dir"); got != "/flag/dir" {
		t.Errorf("GetDataDir(flag) = %q", got)
	}
	if got := GetDataDir(""); got != "/env/dir" {
		t.Errorf("GetDataDir(env) = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARN":    "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range tests {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDisplayConfig(t *testing.T) {
	dir := writeConfig(t, "height: 720\nwatch_debounce: 2s\n")

	var out strings.Builder
	if err := DisplayConfig(&out, dir); err != nil {
		t.Fatalf("DisplayConfig() error: %v", err)
	}
	for _, want := range []string{"# data dir:    " + dir, "height: 720", "watch_debounce: 2s", "format: rgba8"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	bad := writeConfig(t, "width: -1\n")
	if err := DisplayConfig(&out, bad); err == nil {
		t.Error("DisplayConfig() should report an invalid config")
	}
}
