// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package testutil provides reusable test infrastructure and utilities.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/scripting"
)

// Quiet returns a logger that discards everything.
func Quiet() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Interpreter returns an isolated interpreter closed when the test ends.
func Interpreter(t *testing.T) *scripting.Interpreter {
	t.Helper()
	in := scripting.NewInterpreter(Quiet())
	t.Cleanup(in.Close)
	return in
}

// EngineOptions bind a Runner to an isolated interpreter and a quiet logger.
func EngineOptions(t *testing.T) []engine.Option {
	t.Helper()
	return []engine.Option{engine.WithInterpreter(Interpreter(t)), engine.WithLogger(Quiet())}
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// AssertError checks that an error matches expected criteria.
func AssertError(t *testing.T, err error, shouldError bool, msgContains string) {
	t.Helper()

	if !shouldError {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Error("Expected an error but got nil")
		return
	}
	if msgContains != "" && !strings.Contains(err.Error(), msgContains) {
		t.Errorf("Error message %q should contain %q", err.Error(), msgContains)
	}
}
