// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func nop(args []string, ctx *Context) error { return nil }

func names(cmds []*Command) []string {
	var out []string
	for _, c := range cmds {
		out = append(out, c.Name)
	}
	return out
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Command{Name: "time", Aliases: []string{"t", "tm"}, Handler: HandlerFunc(nop)}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		key    string
		wantOK bool
	}{
		{"time", true},
		{"t", true},
		{"tm", true},
		{"ti", false},
		{"", false},
	}
	for _, tt := range tests {
		got, ok := r.Lookup(tt.key)
		if ok != tt.wantOK {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			continue
		}
		if ok && got.Name != "time" {
			t.Errorf("Lookup(%q) = %q, want time", tt.key, got.Name)
		}
	}
}

func TestRegisterRejectsConflicts(t *testing.T) {
	tests := []struct {
		name string
		cmd  *Command
	}{
		{"same name", &Command{Name: "render"}},
		{"alias shadows name", &Command{Name: "rerender", Aliases: []string{"render"}}},
		{"alias shadows alias", &Command{Name: "rasterize", Aliases: []string{"r"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			_ = r.Register(&Command{Name: "render", Aliases: []string{"r"}, Handler: HandlerFunc(nop)})
			tt.cmd.Handler = HandlerFunc(nop)

			if err := r.Register(tt.cmd); err == nil {
				t.Fatal("Register should fail")
			}
			if diff := cmp.Diff([]string{"render"}, names(r.All())); diff != "" {
				t.Errorf("rejected command left a trace (-want +got):\n%s", diff)
			}
			if got, _ := r.Lookup("r"); got.Name != "render" {
				t.Errorf("alias r now resolves to %q", got.Name)
			}
		})
	}
}

func TestAllKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"set", "load", "render"} {
		_ = r.Register(&Command{Name: n, Handler: HandlerFunc(nop)})
	}
	if diff := cmp.Diff([]string{"set", "load", "render"}, names(r.All())); diff != "" {
		t.Errorf("All() (-want +got):\n%s", diff)
	}
}

func TestByCategorySorts(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&Command{Name: "set", Category: CategoryParams, Handler: HandlerFunc(nop)})
	_ = r.Register(&Command{Name: "render", Category: CategoryRender, Handler: HandlerFunc(nop)})
	_ = r.Register(&Command{Name: "input", Category: CategoryParams, Handler: HandlerFunc(nop)})

	got := map[string][]string{}
	for cat, cmds := range r.ByCategory() {
		got[cat] = names(cmds)
	}
	want := map[string][]string{
		CategoryParams: {"input", "set"},
		CategoryRender: {"render"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ByCategory() (-want +got):\n%s", diff)
	}
}

func TestDispatch(t *testing.T) {
	r := NewRegistry()

	var got []string
	_ = r.Register(&Command{
		Name:    "set",
		Aliases: []string{"s"},
		Handler: HandlerFunc(func(args []string, ctx *Context) error {
			got = args
			return nil
		}),
	})

	tests := []struct {
		name     string
		line     string
		wantArgs []string
		wantErr  bool
	}{
		{"blank", "   ", nil, false},
		{"name", "set level 3", []string{"level", "3"}, false},
		{"alias with spacing", "  s   gain  ", []string{"gain"}, false},
		{"unknown", "sett level 3", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			err := r.Dispatch(tt.line, &Context{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Dispatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.wantArgs, got); diff != "" {
				t.Errorf("Dispatch() args (-want +got):\n%s", diff)
			}
		})
	}
}
