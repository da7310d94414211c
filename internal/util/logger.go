// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package util

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the process logger. It writes to stderr at info level until
// InitLogger replaces it.
var Logger = newLogger(os.Stderr, slog.LevelInfo)

// InitLogger initializes the global logger with the given level name
// ("debug", "info", "warn", "error"). Set GOLOB_DEBUG=1 to force debug
// logging regardless of configuration.
func InitLogger(levelName string) {
	level := ParseLevel(levelName)

	if os.Getenv("GOLOB_DEBUG") != "" {
		level = slog.LevelDebug
	}

	Logger = newLogger(os.Stderr, level)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		// Remove timestamp for cleaner CLI output
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler)
}

// Debug logs a debug message (only shown when GOLOB_DEBUG is set or the
// configured level is debug)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
