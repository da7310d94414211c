// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package variant

import (
	"fmt"
	"reflect"
)

// Entry is a named variant, as returned by Registry.All.
type Entry struct {
	Name  string
	Value Variant
}

// Registry is an insertion-ordered set of named variants. It is not safe
// for concurrent use; the runner that owns it serializes access.
type Registry struct {
	vars  map[string]Variant
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{vars: make(map[string]Variant)}
}

// Set inserts v under name. Replacing an existing name keeps its position.
func (r *Registry) Set(name string, v Variant) {
	if _, exists := r.vars[name]; !exists {
		r.order = append(r.order, name)
	}
	r.vars[name] = v
}

// Get returns the variant registered under name.
func (r *Registry) Get(name string) (Variant, bool) {
	v, ok := r.vars[name]
	return v, ok
}

// Len returns the number of registered variants.
func (r *Registry) Len() int { return len(r.order) }

// Names returns the registered names in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns the entries in declaration order. Values are shared with the
// registry; use Clone for an independent copy.
func (r *Registry) All() []Entry {
	out := make([]Entry, len(r.order))
	for i, name := range r.order {
		out[i] = Entry{Name: name, Value: r.vars[name]}
	}
	return out
}

// Clone deep-copies the registry.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		vars:  make(map[string]Variant, len(r.vars)),
		order: append([]string(nil), r.order...),
	}
	for name, v := range r.vars {
		c.vars[name] = v.Clone()
	}
	return c
}

// Reconcile carries values from prev into r for every name the two share.
// Entries whose kind changed keep the freshly declared default.
func (r *Registry) Reconcile(prev *Registry, b Bounds) {
	if prev == nil {
		return
	}
	for _, name := range r.order {
		old, ok := prev.vars[name]
		if !ok || old.Kind() != r.vars[name].Kind() {
			continue
		}
		// kinds match, so Adopt cannot fail
		_ = r.vars[name].Adopt(old, b)
	}
}

// TrySet adopts v into the variant registered under name. The stored
// constraints decide whether the value is taken.
func (r *Registry) TrySet(name string, v Variant, b Bounds) error {
	cur, ok := r.vars[name]
	if !ok {
		return &MissingVarError{Name: name}
	}
	return cur.Adopt(v, b)
}

// Assign is TrySet that also fails with ErrRejected when the value was not
// taken, for callers that show the outcome to a person.
func (r *Registry) Assign(name string, v Variant, b Bounds) error {
	if err := r.TrySet(name, v, b); err != nil {
		return err
	}
	cur := r.vars[name]
	if !reflect.DeepEqual(cur.Value(), v.Value()) {
		return fmt.Errorf("%w: %v does not fit %s", ErrRejected, v.Value(), Describe(cur))
	}
	return nil
}
