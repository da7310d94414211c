// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package scripting

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/rs/xid"
)

// Module is one loaded script. Each module has its own Goja runtime; all
// access to it happens with the interpreter's execution lock held.
type Module struct {
	// ID is unique for every load, even of identical source.
	ID       string
	FileName string

	interp *Interpreter
	vm     *goja.Runtime
	setup  goja.Callable
	run    goja.Callable

	dir   string   // directory relative requires resolve against
	paths []string // search path snapshot taken at load
	cache map[string]*goja.Object

	out      *strings.Builder // active capture, nil between sessions
	loadOut  string           // printed by top-level code
	pending  int              // scheduled host operations not yet run
	waiter   chan struct{}
	poisoned bool
}

// Load compiles and evaluates src as a new module with a fresh identity.
// The module must define callable run and setup functions; run is checked
// first. On success the module is registered with the interpreter.
func (in *Interpreter) Load(src, fileName string) (*Module, error) {
	m := &Module{
		ID:       xid.New().String(),
		FileName: fileName,
		interp:   in,
		vm:       goja.New(),
		paths:    in.SearchPaths(),
		cache:    make(map[string]*goja.Object),
	}
	if fileName != "" {
		if abs, err := filepath.Abs(fileName); err == nil {
			m.dir = filepath.Dir(abs)
		}
	}
	m.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	name := fileName
	if name == "" {
		name = m.ID + ".js"
	}
	prg, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, &InvalidModuleError{Message: err.Error()}
	}

	in.exec.Lock()
	defer in.exec.Unlock()

	if err := m.installGlobals(); err != nil {
		return nil, fmt.Errorf("failed to install script globals: %w", err)
	}

	var boot strings.Builder
	m.out = &boot
	_, err = m.vm.RunProgram(prg)
	m.out = nil
	m.loadOut = boot.String()
	if err != nil {
		return nil, &InvalidModuleError{Message: runtimeError(err, "").Stderr}
	}

	var ok bool
	if m.run, ok = goja.AssertFunction(m.vm.Get("run")); !ok {
		return nil, ErrMissingRun
	}
	if m.setup, ok = goja.AssertFunction(m.vm.Get("setup")); !ok {
		return nil, ErrMissingSetup
	}

	if err := in.register(m); err != nil {
		return nil, err
	}
	in.log.Debug("module loaded", "id", m.ID, "file", fileName)
	return m, nil
}

// SearchPaths returns the search path snapshot the module resolves bare
// require() names against.
func (m *Module) SearchPaths() []string {
	return append([]string(nil), m.paths...)
}

// LoadOutput returns what the module printed while its top level ran.
func (m *Module) LoadOutput() string { return m.loadOut }

func (m *Module) installGlobals() error {
	set := func(name string, fn func(goja.FunctionCall) goja.Value) error {
		return m.vm.Set(name, fn)
	}

	if err := set("print", m.print); err != nil {
		return err
	}
	if err := set("sleep", m.sleep); err != nil {
		return err
	}
	if err := set("setTimeout", m.setTimeout); err != nil {
		return err
	}
	if err := set("require", m.requireFrom(m.dir)); err != nil {
		return err
	}

	console := m.vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, m.print); err != nil {
			return err
		}
	}
	return m.vm.Set("console", console)
}

// print joins its arguments with spaces and writes them as one line.
func (m *Module) print(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = describe(arg)
	}
	m.printf("%s\n", strings.Join(parts, " "))
	return goja.Undefined()
}

func (m *Module) printf(format string, args ...any) {
	if m.out != nil {
		fmt.Fprintf(m.out, format, args...)
		return
	}
	// output from timers that fire between render passes
	m.interp.log.Info("script output", "module", m.ID, "text", strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}
