// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrQuit is returned by Dispatch when the console should exit.
var ErrQuit = errors.New("quit")

// Registry resolves command names and aliases. Registration order is kept
// for listing.
type Registry struct {
	mu    sync.RWMutex
	index map[string]*Command
	order []*Command
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Command)}
}

// Register adds cmd under its name and aliases. Nothing is added if any of
// those keys is taken.
func (r *Registry) Register(cmd *Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{cmd.Name}, cmd.Aliases...)
	for i, key := range keys {
		existing, taken := r.index[key]
		switch {
		case taken && i == 0:
			return fmt.Errorf("command %q already registered", existing.Name)
		case taken:
			return fmt.Errorf("alias %q conflicts with existing command %q", key, existing.Name)
		}
	}

	for _, key := range keys {
		r.index[key] = cmd
	}
	r.order = append(r.order, cmd)
	return nil
}

func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.index[name]
	return cmd, ok
}

// All returns every command once, in registration order.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// ByCategory groups commands by category, sorted by name within each group.
func (r *Registry) ByCategory() map[string][]*Command {
	grouped := make(map[string][]*Command)
	for _, cmd := range r.All() {
		grouped[cmd.Category] = append(grouped[cmd.Category], cmd)
	}
	for _, cmds := range grouped {
		slices.SortFunc(cmds, func(a, b *Command) int {
			return strings.Compare(a.Name, b.Name)
		})
	}
	return grouped
}

// Dispatch splits line into a command name and arguments and runs it.
// Blank lines do nothing.
func (r *Registry) Dispatch(line string, ctx *Context) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := r.Lookup(fields[0])
	if !ok {
		return fmt.Errorf("unknown command %q (type 'help' for a list)", fields[0])
	}
	return cmd.Handler.Execute(fields[1:], ctx)
}
