// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package scripting embeds the Goja JavaScript interpreter. An Interpreter
// is the process-level handle: it serializes script execution, tracks the
// loaded modules by identity, owns the module search path, and runs the
// background loop that settles promises created by host functions.
package scripting

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/mobile-bungalow/golobulus/internal/util"
)

var (
	defaultOnce   sync.Once
	defaultInterp *Interpreter
)

// Default returns the process-wide interpreter, creating it on first use.
// It is never closed.
func Default() *Interpreter {
	defaultOnce.Do(func() {
		defaultInterp = NewInterpreter(util.Logger)
	})
	return defaultInterp
}

// Interpreter serializes access to every module it loads. Only one script
// invocation runs at a time across all runners sharing an interpreter.
type Interpreter struct {
	exec sync.Mutex // held while any module's VM is in use

	mu      sync.Mutex // guards the fields below
	modules map[string]*Module
	paths   []string
	closed  bool

	looping bool
	tasks   chan func()
	done    chan struct{}
	stopped chan struct{}

	log *slog.Logger
}

// NewInterpreter creates an isolated interpreter. A nil logger discards
// interpreter diagnostics.
func NewInterpreter(logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Interpreter{
		modules: make(map[string]*Module),
		tasks:   make(chan func(), 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		log:     logger,
	}
}

// Close stops the background loop. Modules already loaded must not be used
// afterwards.
func (in *Interpreter) Close() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	running := in.looping
	in.mu.Unlock()

	close(in.done)
	if running {
		<-in.stopped
	}
}

// AddSearchPath puts dir at the front of the module search path unless it
// is already present.
func (in *Interpreter) AddSearchPath(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil || dir == "" {
		return fmt.Errorf("%w: %q", ErrPathUpdate, dir)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if slices.Contains(in.paths, abs) {
		return nil
	}
	in.paths = slices.Insert(in.paths, 0, abs)
	in.log.Debug("search path added", "dir", abs)
	return nil
}

// RemoveSearchPath removes dir from the search path. Removing a directory
// that is not present fails with ErrPathUpdate.
func (in *Interpreter) RemoveSearchPath(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrPathUpdate, dir)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	i := slices.Index(in.paths, abs)
	if i < 0 {
		return fmt.Errorf("%w: %q is not on the search path", ErrPathUpdate, dir)
	}
	in.paths = slices.Delete(in.paths, i, i+1)
	in.log.Debug("search path removed", "dir", abs)
	return nil
}

// SearchPaths returns a copy of the current search path, highest priority first.
func (in *Interpreter) SearchPaths() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.paths)
}

// Evict forgets a module identity. Evicting an unknown id is a no-op.
func (in *Interpreter) Evict(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.modules[id]; ok {
		delete(in.modules, id)
		in.log.Debug("module evicted", "id", id)
	}
}

// Lookup returns the live module with the given identity.
func (in *Interpreter) Lookup(id string) (*Module, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	m, ok := in.modules[id]
	return m, ok
}

// ModuleCount returns the number of live module identities.
func (in *Interpreter) ModuleCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.modules)
}

func (in *Interpreter) register(m *Module) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrClosed
	}
	in.modules[m.ID] = m
	return nil
}
