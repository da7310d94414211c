// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package scripting

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/fortytw2/leaktest"
)

const passScript = `
function setup(ctx) {}
function run(ctx) {}
`

func newTestInterp(t *testing.T) *Interpreter {
	t.Helper()
	in := NewInterpreter(nil)
	t.Cleanup(in.Close)
	return in
}

// invoke runs one entry point in its own session and returns everything
// captured alongside the call error.
func invoke(m *Module, entry EntryPoint) (string, error) {
	s := m.Begin()
	err := s.Call(entry, goja.Undefined())
	return s.Close(), err
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"valid", passScript, nil},
		{"empty", "", ErrMissingRun},
		{"neither checks run first", "var x = 1;", ErrMissingRun},
		{"run not callable", "var run = 5; function setup() {}", ErrMissingRun},
		{"missing setup", "function run() {}", ErrMissingSetup},
		{"setup not callable", "function run() {}\nvar setup = {};", ErrMissingSetup},
		{"syntax error", "function run( {", ErrInvalidModule},
		{"top level throw", "throw new Error('nope');\nfunction run() {}\nfunction setup() {}", ErrInvalidModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newTestInterp(t)
			m, err := in.Load(tt.src, "test.js")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && m == nil {
				t.Fatal("Load() returned nil module")
			}
			if tt.wantErr != nil && in.ModuleCount() != 0 {
				t.Errorf("ModuleCount() = %d after failed load, want 0", in.ModuleCount())
			}
		})
	}
}

func TestModuleIdentity(t *testing.T) {
	in := newTestInterp(t)

	a, err := in.Load(passScript, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	b, err := in.Load(passScript, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("identical sources share identity %q", a.ID)
	}
	if in.ModuleCount() != 2 {
		t.Errorf("ModuleCount() = %d, want 2", in.ModuleCount())
	}

	in.Evict(a.ID)
	if _, ok := in.Lookup(a.ID); ok {
		t.Error("evicted module still registered")
	}
	if in.ModuleCount() != 1 {
		t.Errorf("ModuleCount() = %d, want 1", in.ModuleCount())
	}
}

func TestStdoutCapture(t *testing.T) {
	in := newTestInterp(t)
	m, err := in.Load(`
print("loaded");
function setup(ctx) {}
function run(ctx) {
	print("Hello!", "World.");
	console.log(1, true);
}
`, "capture.js")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := m.LoadOutput(); got != "loaded\n" {
		t.Errorf("LoadOutput() = %q, want %q", got, "loaded\n")
	}

	out, err := invoke(m, EntryRun)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if want := "Hello! World.\n1 true\n"; out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}

	out, err = invoke(m, EntrySetup)
	if err != nil || out != "" {
		t.Errorf("setup = %q, %v, want empty output", out, err)
	}
}

func TestRuntimeErrorKeepsStdout(t *testing.T) {
	in := newTestInterp(t)
	m, err := in.Load(`function setup(ctx) {}
function run(ctx) {
	print("before");
	throw new Error("boom");
}
`, "fail.js")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	_, err = invoke(m, EntryRun)
	var rt *RuntimeError
	if !errors.As(err, &rt) {
		t.Fatalf("run error = %v, want RuntimeError", err)
	}
	if rt.Stdout != "before\n" {
		t.Errorf("Stdout = %q, want %q", rt.Stdout, "before\n")
	}
	if want := "line 4: Error: boom"; rt.Stderr != want {
		t.Errorf("Stderr = %q, want %q", rt.Stderr, want)
	}
}

func TestAsyncRun(t *testing.T) {
	defer leaktest.Check(t)()

	in := NewInterpreter(nil)
	defer in.Close()

	m, err := in.Load(`
function setup(ctx) {}
async function run(ctx) {
	print("start");
	await sleep(5);
	await sleep(1);
	print("done");
}
`, "async.js")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	out, err := invoke(m, EntryRun)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if out != "start\ndone\n" {
		t.Errorf("stdout = %q, want %q", out, "start\ndone\n")
	}
}

func TestAsyncRejection(t *testing.T) {
	in := newTestInterp(t)
	m, err := in.Load(`function setup(ctx) {}
async function run(ctx) {
	await sleep(1);
	print("woke");
	throw new Error("late");
}
`, "reject.js")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	_, err = invoke(m, EntryRun)
	var rt *RuntimeError
	if !errors.As(err, &rt) {
		t.Fatalf("run error = %v, want RuntimeError", err)
	}
	if !strings.Contains(rt.Stderr, "late") || !strings.HasPrefix(rt.Stderr, "line 5: ") {
		t.Errorf("Stderr = %q, want line 5 prefix and message", rt.Stderr)
	}
	if rt.Stdout != "woke\n" {
		t.Errorf("Stdout = %q, want %q", rt.Stdout, "woke\n")
	}
}

func TestStalledPromise(t *testing.T) {
	in := newTestInterp(t)
	m, err := in.Load(`
function setup(ctx) {}
function run(ctx) { return new Promise(function() {}); }
`, "stall.js")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if _, err := invoke(m, EntryRun); !errors.Is(err, ErrAsync) {
		t.Errorf("run error = %v, want ErrAsync", err)
	}
}

func TestSetTimeout(t *testing.T) {
	in := newTestInterp(t)
	m, err := in.Load(`
function setup(ctx) {}
function run(ctx) {
	return new Promise(function(resolve) {
		setTimeout(function(msg) { print(msg); resolve(); }, 2, "fired");
	});
}
`, "timeout.js")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	out, err := invoke(m, EntryRun)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if out != "fired\n" {
		t.Errorf("stdout = %q, want %q", out, "fired\n")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRequire(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "helpers.js"), `
var cfg = require("./data/config.json");
exports.scale = function(x) { return x * cfg.factor; };
`)
	writeFile(t, filepath.Join(dir, "data", "config.json"), `{"factor": 3}`)
	libs := t.TempDir()
	writeFile(t, filepath.Join(libs, "mathlib", "index.js"), `module.exports = { add: function(a, b) { return a + b; } };`)

	in := newTestInterp(t)
	if err := in.AddSearchPath(libs); err != nil {
		t.Fatalf("AddSearchPath() error: %v", err)
	}

	script := filepath.Join(dir, "main.js")
	m, err := in.Load(`
var helpers = require("./helpers");
var mathlib = require("mathlib");
function setup(ctx) {}
function run(ctx) { print(helpers.scale(2), mathlib.add(1, 2)); }
`, script)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	out, err := invoke(m, EntryRun)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if out != "6 3\n" {
		t.Errorf("stdout = %q, want %q", out, "6 3\n")
	}

	_, err = in.Load(`require("missing"); function run() {} function setup() {}`, script)
	if !errors.Is(err, ErrInvalidModule) {
		t.Errorf("Load() with missing require = %v, want ErrInvalidModule", err)
	}
}

func TestSearchPaths(t *testing.T) {
	in := newTestInterp(t)
	a, b := t.TempDir(), t.TempDir()

	for _, dir := range []string{a, b, a} {
		if err := in.AddSearchPath(dir); err != nil {
			t.Fatalf("AddSearchPath(%s) error: %v", dir, err)
		}
	}
	if got := in.SearchPaths(); len(got) != 2 || got[0] != b || got[1] != a {
		t.Errorf("SearchPaths() = %v, want [%s %s]", got, b, a)
	}

	m, err := in.Load(passScript, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if err := in.RemoveSearchPath(b); err != nil {
		t.Fatalf("RemoveSearchPath() error: %v", err)
	}
	if err := in.RemoveSearchPath(b); !errors.Is(err, ErrPathUpdate) {
		t.Errorf("second RemoveSearchPath() = %v, want ErrPathUpdate", err)
	}
	if got := m.SearchPaths(); len(got) != 2 {
		t.Errorf("module snapshot changed after load: %v", got)
	}
}

func TestUpdateLibrarySearchPath(t *testing.T) {
	key := libraryPathVar()
	t.Setenv(key, "")

	dir := t.TempDir()
	if err := UpdateLibrarySearchPath(dir); err != nil {
		t.Fatalf("UpdateLibrarySearchPath() error: %v", err)
	}
	if err := UpdateLibrarySearchPath(dir); err != nil {
		t.Fatalf("second UpdateLibrarySearchPath() error: %v", err)
	}
	if got := os.Getenv(key); got != dir {
		t.Errorf("%s = %q, want %q", key, got, dir)
	}

	if err := UpdateLibrarySearchPath(filepath.Join(dir, "missing")); !errors.Is(err, ErrDllSearch) {
		t.Errorf("missing dir error = %v, want ErrDllSearch", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	defer leaktest.Check(t)()

	in := NewInterpreter(nil)
	m, err := in.Load(`function setup() {}
async function run() { await sleep(1); }`, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if _, err := invoke(m, EntryRun); err != nil {
		t.Fatalf("run error: %v", err)
	}
	in.Close()
	in.Close()

	if _, err := in.Load(passScript, ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Load() after Close = %v, want ErrClosed", err)
	}
}
