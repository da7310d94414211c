// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package watch reloads a script when its file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mobile-bungalow/golobulus/internal/util"
)

// DefaultDelay is how long the file must be quiet before onChange runs.
const DefaultDelay = 250 * time.Millisecond

// Options configures File.
type Options struct {
	Delay  time.Duration
	Logger *slog.Logger
}

// File calls onChange after path is created, written, replaced, or removed.
// Bursts of events closer together than the delay cause a single call.
//
// The parent directory is watched rather than the file itself since editors
// commonly save by renaming a temporary file over the original.
//
// The returned channel is closed once the watcher has stopped after ctx is
// cancelled. No call to onChange starts after that.
func File(ctx context.Context, path string, onChange func(), opts Options) (<-chan struct{}, error) {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = util.Logger
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch script directory: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = watcher.Close() }()

		// Fires on this goroutine so onChange never outlives the watcher.
		var debounce *time.Timer
		var fire <-chan time.Time
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(opts.Delay)
				} else {
					debounce.Reset(opts.Delay)
				}
				fire = debounce.C

			case <-fire:
				fire = nil
				opts.Logger.Debug("script changed", "path", abs)
				onChange()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				opts.Logger.Warn("file watcher error", "error", err)
			}
		}
	}()

	return done, nil
}
