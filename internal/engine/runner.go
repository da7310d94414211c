// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package engine runs image-processing scripts against host pixel buffers,
// independent of any UI.
//
// A Runner holds one loaded script and the parameters it declared. Loading
// runs the script's setup; every render pass runs its run function against
// borrowed input and output buffers.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mobile-bungalow/golobulus/internal/jsapi"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/scripting"
	"github.com/mobile-bungalow/golobulus/internal/util"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

// DefaultScript is loaded by New. It copies the "input" image to the output,
// or clears the output when no input is given.
const DefaultScript = `
function setup(ctx) {
    ctx.registerImageInput("input");
}

function run(ctx) {
    const input = ctx.getInput("input");
    const output = ctx.output();
    if (input === null) {
        output.fill(0);
        return;
    }
    if (input.format === output.format) {
        output.blit(input);
    } else {
        output.copyFrom(input);
    }
}
`

// DefaultScriptName is the file name reported for DefaultScript.
const DefaultScriptName = "default.js"

// Runner owns one loaded script. Loads and render passes are serialized.
type Runner struct {
	mu sync.Mutex

	interp *scripting.Interpreter
	bounds variant.Bounds
	log    *slog.Logger

	module   *scripting.Module
	source   string
	fileName string

	registry        *variant.Registry
	time            float64
	outputSize      *pixel.Size
	sequential      bool
	colorCorrection bool

	// Desired paths apply at the next LoadScript.
	venvPath, scriptDir     string
	appliedVenv, appliedDir string
}

// Option configures a Runner.
type Option func(*Runner) error

// WithInterpreter binds the Runner to in instead of scripting.Default().
func WithInterpreter(in *scripting.Interpreter) Option {
	return func(r *Runner) error {
		if in == nil {
			return errors.New("nil interpreter")
		}
		r.interp = in
		return nil
	}
}

// WithBounds sets whether range endpoints survive a reload.
func WithBounds(b variant.Bounds) Option {
	return func(r *Runner) error {
		r.bounds = b
		return nil
	}
}

// WithLogger sets the logger for script output and errors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) error {
		r.log = l
		return nil
	}
}

// New creates a Runner with DefaultScript loaded.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		bounds:   variant.Exclusive,
		log:      util.Logger,
		registry: variant.NewRegistry(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.interp == nil {
		r.interp = scripting.Default()
	}

	if _, err := r.LoadScript(DefaultScript, DefaultScriptName); err != nil {
		return nil, fmt.Errorf("failed to load default script: %w", err)
	}
	return r, nil
}

// LoadScript replaces the loaded script with src and runs its setup,
// returning everything the script printed. Parameters that keep their name,
// kind and a compatible range keep their values. On any error the Runner is
// left exactly as it was.
func (r *Runner) LoadScript(src, fileName string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.applyPaths(); err != nil {
		return "", err
	}

	m, err := r.interp.Load(src, fileName)
	if err != nil {
		return "", err
	}

	s := m.Begin()
	ctx := jsapi.NewSetupContext(s.Runtime(), r.time)
	obj, err := ctx.Object()
	if err != nil {
		s.Close()
		r.interp.Evict(m.ID)
		return "", fmt.Errorf("failed to build setup context: %w", err)
	}
	err = s.Call(scripting.EntrySetup, s.Runtime().ToValue(obj))
	rest := s.Close()

	if err != nil {
		r.interp.Evict(m.ID)
		var rt *scripting.RuntimeError
		if errors.As(err, &rt) {
			rt.Stdout = m.LoadOutput() + rt.Stdout + rest
			r.log.Error("script setup failed", "file", fileName, "error", rt.Stderr)
			return rt.Stdout, err
		}
		return m.LoadOutput() + rest, err
	}
	stdout := m.LoadOutput() + rest

	reg := ctx.Registry()
	reg.Reconcile(r.registry, r.bounds)

	if r.module != nil {
		r.interp.Evict(r.module.ID)
	}
	r.module = m
	r.source = src
	r.fileName = fileName
	r.registry = reg
	r.outputSize = nil
	if size, ok := ctx.RequestedSize(); ok {
		r.outputSize = &size
	}
	r.sequential = ctx.Sequential()
	r.colorCorrection = ctx.ColorCorrection()

	r.logStdout(stdout)
	r.log.Debug("script loaded", "file", fileName, "module", m.ID, "params", reg.Len())
	return stdout, nil
}

// applyPaths brings the interpreter search path in line with the desired
// venv and script directories.
func (r *Runner) applyPaths() error {
	apply := func(applied *string, desired string) error {
		if *applied == desired {
			return nil
		}
		if *applied != "" {
			if err := r.interp.RemoveSearchPath(*applied); err != nil {
				r.log.Debug("stale search path already gone", "dir", *applied)
			}
			*applied = ""
		}
		if desired != "" {
			if err := r.interp.AddSearchPath(desired); err != nil {
				return err
			}
			*applied = desired
		}
		return nil
	}
	if err := apply(&r.appliedVenv, r.venvPath); err != nil {
		return err
	}
	return apply(&r.appliedDir, r.scriptDir)
}

// SetVenvPath sets the library directory searched by the next LoadScript.
func (r *Runner) SetVenvPath(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venvPath = dir
}

// ClearVenvPath forgets the venv path and removes it from the interpreter
// if a load applied it.
func (r *Runner) ClearVenvPath() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearPath(&r.venvPath, &r.appliedVenv)
}

// SetScriptParentDirectory sets the script directory searched by the next
// LoadScript.
func (r *Runner) SetScriptParentDirectory(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scriptDir = dir
}

// ClearScriptParentDirectory forgets the script directory and removes it
// from the interpreter if a load applied it.
func (r *Runner) ClearScriptParentDirectory() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearPath(&r.scriptDir, &r.appliedDir)
}

func (r *Runner) clearPath(desired, applied *string) error {
	*desired = ""
	if *applied == "" {
		return nil
	}
	dir := *applied
	*applied = ""
	return r.interp.RemoveSearchPath(dir)
}

// VenvPath returns the desired venv path.
func (r *Runner) VenvPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.venvPath
}

// ScriptParentDirectory returns the desired script directory.
func (r *Runner) ScriptParentDirectory() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scriptDir
}

// SetTime sets the value ctx.time() reports.
func (r *Runner) SetTime(t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.time = t
}

// Time returns the current script time.
func (r *Runner) Time() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.time
}

// RequestedOutputSize returns the output size the script last asked for.
// Passing buffers of another size costs an extra allocation and copy on
// every render pass.
func (r *Runner) RequestedOutputSize() (pixel.Size, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outputSize == nil {
		return pixel.Size{}, false
	}
	return *r.outputSize, true
}

// IsSequential reports whether the script asked to be rendered frame by
// frame in order.
func (r *Runner) IsSequential() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sequential
}

// UsesAutomaticColorCorrection reports whether the script asked for inputs
// and outputs in straight RGBA order.
func (r *Runner) UsesAutomaticColorCorrection() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.colorCorrection
}

// Initialized reports whether a script is loaded.
func (r *Runner) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.module != nil
}

// TrySetVar sets a declared parameter. The value must match the
// parameter's kind and range.
func (r *Runner) TrySetVar(name string, v variant.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.TrySet(name, v, r.bounds)
}

// SetVar is TrySetVar that reports ErrRejected when the parameter's range
// or tag set did not take v.
func (r *Runner) SetVar(name string, v variant.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Assign(name, v, r.bounds)
}

// Var returns a copy of one parameter.
func (r *Runner) Var(name string) (variant.Variant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.registry.Get(name)
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

// Vars returns copies of all parameters in declaration order.
func (r *Runner) Vars() []variant.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Clone().All()
}

// Source returns the loaded script text.
func (r *Runner) Source() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// FileName returns the name the loaded script was given.
func (r *Runner) FileName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fileName
}

// ModuleID returns the identity of the loaded module.
func (r *Runner) ModuleID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.module == nil {
		return ""
	}
	return r.module.ID
}

// Close evicts the loaded module. The Runner must not be used afterwards.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.module != nil {
		r.interp.Evict(r.module.ID)
		r.module = nil
	}
}

func (r *Runner) logStdout(stdout string) {
	if stdout != "" {
		r.log.Info("script output", "file", r.fileName, "stdout", stdout)
	}
}
