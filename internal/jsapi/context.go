// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package jsapi builds the `ctx` object scripts receive in setup(ctx) and
// run(ctx), and the zero-copy image views it hands out.
//
// A Context lives for exactly one call. In the setup phase it records the
// parameters a script declares and the preferences it sets; in the run
// phase it exposes parameter values, input images and the output image.
package jsapi

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/variant"
	"github.com/mobile-bungalow/golobulus/internal/version"
)

// Phase is the entry point a Context was built for.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseRun
)

// RunConfig carries everything a run-phase Context needs.
type RunConfig struct {
	Registry *variant.Registry
	Time     float64
	Inputs   map[string]pixel.InDesc
	// Output is the buffer the script writes: the caller's, or a proxy.
	Output pixel.OutDesc
	// Available is the size of the caller's buffer. Requests larger than
	// this cannot be honored.
	Available       pixel.Size
	Sequential      bool
	ColorCorrection bool
}

// Context is the Go side of the script-visible ctx object.
type Context struct {
	vm    *goja.Runtime
	phase Phase
	cfg   RunConfig

	images     map[string]goja.Value
	output     pixel.OutDesc
	outputObj  goja.Value
	proxy      *pixel.Buffer
	requested  *pixel.Size
	oversize   *pixel.Size
	sequential bool
	correction bool
}

// NewSetupContext creates the Context for a module's setup call. It starts
// with an empty registry.
func NewSetupContext(vm *goja.Runtime, time float64) *Context {
	return &Context{
		vm:    vm,
		phase: PhaseSetup,
		cfg:   RunConfig{Registry: variant.NewRegistry(), Time: time},
	}
}

// NewRunContext creates the Context for a module's run call.
func NewRunContext(vm *goja.Runtime, cfg RunConfig) *Context {
	return &Context{
		vm:         vm,
		phase:      PhaseRun,
		cfg:        cfg,
		images:     make(map[string]goja.Value),
		output:     cfg.Output,
		sequential: cfg.Sequential,
		correction: cfg.ColorCorrection,
	}
}

// Registry returns the parameters declared (setup) or read (run).
func (c *Context) Registry() *variant.Registry { return c.cfg.Registry }

// RequestedSize returns the last output size the script asked for.
func (c *Context) RequestedSize() (pixel.Size, bool) {
	if c.requested == nil {
		return pixel.Size{}, false
	}
	return *c.requested, true
}

// Oversize returns a request that exceeded the caller's buffer, if any. The
// script may have caught the exception; the request still stands.
func (c *Context) Oversize() (pixel.Size, bool) {
	if c.oversize == nil {
		return pixel.Size{}, false
	}
	return *c.oversize, true
}

// Proxy returns the buffer allocated by setOutputSize during run, if any.
func (c *Context) Proxy() *pixel.Buffer { return c.proxy }

// Sequential reports the sequential-mode flag after the call.
func (c *Context) Sequential() bool { return c.sequential }

// ColorCorrection reports the automatic color correction flag after the call.
func (c *Context) ColorCorrection() bool { return c.correction }

// Object builds the JS ctx object.
func (c *Context) Object() (*goja.Object, error) {
	obj := c.vm.NewObject()

	set := func(name string, fn func(goja.FunctionCall) goja.Value) error {
		return obj.Set(name, fn)
	}

	fns := []struct {
		name string
		fn   func(goja.FunctionCall) goja.Value
	}{
		// Registration (setup only)
		{"registerFloat", c.jsRegisterFloat},
		{"registerInt", c.jsRegisterInt},
		{"registerBool", c.jsRegisterBool},
		{"registerColor", c.jsRegisterColor},
		{"registerVector", c.jsRegisterVector},
		{"registerEnum", c.jsRegisterEnum},
		{"registerImageInput", c.jsRegisterImageInput},

		// Values and images
		{"getInput", c.jsGetInput},
		{"output", c.jsOutput},
		{"getOutput", c.jsOutput},
		{"setOutputSize", c.jsSetOutputSize},
		{"configureOutputSize", c.jsSetOutputSize},

		// Preferences
		{"setSequentialMode", c.jsSetSequentialMode},
		{"isSequentialMode", c.jsIsSequentialMode},
		{"setAutomaticColorCorrection", c.jsSetAutomaticColorCorrection},
		{"usesAutomaticColorCorrection", c.jsUsesAutomaticColorCorrection},

		// Environment
		{"time", c.jsTime},
		{"buildInfo", c.jsBuildInfo},
		{"isSetup", c.jsIsSetup},
	}
	for _, f := range fns {
		if err := set(f.name, f.fn); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", f.name, err)
		}
	}
	return obj, nil
}

func (c *Context) requireSetup() {
	if c.phase != PhaseSetup {
		throwError(c.vm, "Cannot register inputs outside of setup")
	}
}

func (c *Context) name(call goja.FunctionCall, fn string) string {
	requireArgs(c.vm, call, 1, fn+"() requires a name argument")
	return call.Argument(0).String()
}

// rangeArgs accepts either an options object {min, max, default} or the
// positional form (min, max, default) after the name.
func (c *Context) rangeArgs(call goja.FunctionCall, defMin, defMax float64) (lo, hi, def float64) {
	if opts, ok := call.Argument(1).(*goja.Object); ok {
		return floatOr(option(opts, "min"), defMin), floatOr(option(opts, "max"), defMax), floatOr(option(opts, "default"), 0)
	}
	return floatOr(call.Argument(1), defMin), floatOr(call.Argument(2), defMax), floatOr(call.Argument(3), 0)
}

func (c *Context) jsRegisterFloat(call goja.FunctionCall) goja.Value {
	c.requireSetup()
	name := c.name(call, "registerFloat")
	lo, hi, def := c.rangeArgs(call, -100, 100)
	c.cfg.Registry.Set(name, variant.NewFloat(float32(def), float32(lo), float32(hi)))
	return goja.Undefined()
}

func (c *Context) jsRegisterInt(call goja.FunctionCall) goja.Value {
	c.requireSetup()
	name := c.name(call, "registerInt")
	lo, hi, def := c.rangeArgs(call, -100, 100)
	c.cfg.Registry.Set(name, variant.NewInt(
		toInt32(c.vm, def, "registerInt default"),
		toInt32(c.vm, lo, "registerInt min"),
		toInt32(c.vm, hi, "registerInt max"),
	))
	return goja.Undefined()
}

func (c *Context) jsRegisterBool(call goja.FunctionCall) goja.Value {
	c.requireSetup()
	name := c.name(call, "registerBool")
	def := false
	if isSet(call.Argument(1)) {
		def = call.Argument(1).ToBoolean()
	}
	c.cfg.Registry.Set(name, variant.NewBool(def))
	return goja.Undefined()
}

func (c *Context) jsRegisterColor(call goja.FunctionCall) goja.Value {
	c.requireSetup()
	name := c.name(call, "registerColor")
	def := [4]float32{1, 1, 1, 1}
	if isSet(call.Argument(1)) {
		for i, f := range toFloats(c.vm, call.Argument(1), 4, "registerColor") {
			def[i] = float32(f)
		}
	}
	c.cfg.Registry.Set(name, variant.NewColor(def))
	return goja.Undefined()
}

func (c *Context) jsRegisterVector(call goja.FunctionCall) goja.Value {
	c.requireSetup()
	name := c.name(call, "registerVector")
	opts, _ := call.Argument(1).(*goja.Object)
	lo := vec2Or(c.vm, option(opts, "min"), [2]float32{-100, -100}, "registerVector min")
	hi := vec2Or(c.vm, option(opts, "max"), [2]float32{100, 100}, "registerVector max")
	def := vec2Or(c.vm, option(opts, "default"), [2]float32{0, 0}, "registerVector default")
	c.cfg.Registry.Set(name, variant.NewVector2(def, lo, hi))
	return goja.Undefined()
}

// registerEnum(name, default, {label: value, ...})
func (c *Context) jsRegisterEnum(call goja.FunctionCall) goja.Value {
	c.requireSetup()
	requireArgs(c.vm, call, 3, "registerEnum() requires name, default and options arguments")
	name := call.Argument(0).String()
	def := toInt32(c.vm, call.Argument(1).ToFloat(), "registerEnum default")

	opts, ok := call.Argument(2).(*goja.Object)
	if !ok {
		throwType(c.vm, "registerEnum: options must be an object of name: value pairs")
	}
	tags := make(map[string]int32)
	for _, key := range opts.Keys() {
		tags[key] = toInt32(c.vm, opts.Get(key).ToFloat(), "registerEnum option "+key)
	}
	c.cfg.Registry.Set(name, variant.NewTaggedInt(def, tags))
	return goja.Undefined()
}

func (c *Context) jsRegisterImageInput(call goja.FunctionCall) goja.Value {
	c.requireSetup()
	c.cfg.Registry.Set(c.name(call, "registerImageInput"), &variant.Image{})
	return goja.Undefined()
}

// getInput returns a parameter's current value or an input image. Unknown
// names, and image slots with no image this pass, give null.
func (c *Context) jsGetInput(call goja.FunctionCall) goja.Value {
	name := c.name(call, "getInput")
	v, ok := c.cfg.Registry.Get(name)
	if !ok {
		return goja.Null()
	}

	switch t := v.(type) {
	case *variant.Image:
		return c.image(name)
	case *variant.Color:
		return c.vm.NewArray(t.Current[0], t.Current[1], t.Current[2], t.Current[3])
	case *variant.Vector2:
		return c.vm.NewArray(t.Current[0], t.Current[1])
	default:
		return c.vm.ToValue(v.Value())
	}
}

func (c *Context) image(name string) goja.Value {
	if cached, ok := c.images[name]; ok {
		return cached
	}
	desc, ok := c.cfg.Inputs[name]
	if !ok || c.phase != PhaseRun {
		return goja.Null()
	}

	native := desc.Format
	if c.correction && native.Order() == pixel.OrderARGB {
		var err error
		if desc, err = straightCopy(desc); err != nil {
			throwError(c.vm, "input %q: %v", name, err)
		}
	}
	v, err := newView(c.vm, desc, false)
	if err != nil {
		throwError(c.vm, "input %q: %v", name, err)
	}
	v.white = native.White()
	obj, err := v.object()
	if err != nil {
		throwError(c.vm, "input %q: %v", name, err)
	}
	c.images[name] = obj
	return obj
}

// straightCopy returns an RGBA-ordered copy of an ARGB input.
func straightCopy(d pixel.InDesc) (pixel.InDesc, error) {
	buf := pixel.NewBuffer(d.Format, d.Size())
	if err := pixel.Blit(buf.OutDesc(), d); err != nil {
		return pixel.InDesc{}, err
	}
	if err := pixel.ToStraight(buf.OutDesc()); err != nil {
		return pixel.InDesc{}, err
	}
	in := buf.InDesc()
	in.Format = d.Format.Straight()
	return in, nil
}

func (c *Context) jsOutput(goja.FunctionCall) goja.Value {
	if c.phase != PhaseRun {
		throwError(c.vm, "The output image is only available in run")
	}
	if c.outputObj != nil {
		return c.outputObj
	}

	desc := c.output.ReadOnly()
	native := desc.Format
	if c.correction {
		desc.Format = native.Straight()
	}
	v, err := newView(c.vm, desc, true)
	if err != nil {
		throwError(c.vm, "output: %v", err)
	}
	v.white = native.White()
	obj, err := v.object()
	if err != nil {
		throwError(c.vm, "output: %v", err)
	}
	c.outputObj = obj
	return obj
}

// setOutputSize(height, width) asks for an output of a different size. In
// run, a size other than the current output's swaps in a zeroed proxy that
// the runner centers into the caller's buffer afterwards.
func (c *Context) jsSetOutputSize(call goja.FunctionCall) goja.Value {
	requireArgs(c.vm, call, 2, "setOutputSize() requires height and width arguments")
	size := pixel.Size{Width: int(call.Argument(1).ToInteger()), Height: int(call.Argument(0).ToInteger())}
	if size.Empty() {
		throwRange(c.vm, "output size %s must be positive", size)
	}
	if err := size.Check(); err != nil {
		throwRange(c.vm, "output size: %v", err)
	}

	if c.phase == PhaseSetup {
		c.requested = &size
		return goja.Undefined()
	}

	if !size.Fits(c.cfg.Available) {
		c.oversize = &size
		throwRange(c.vm, "You requested an output of size %s, that was larger than the buffer, %s, provided", size, c.cfg.Available)
	}

	if size != c.output.Size() {
		proxy, err := pixel.AllocBuffer(c.output.Format, size)
		if err != nil {
			throwRange(c.vm, "output size: %v", err)
		}
		c.proxy = proxy
		c.output = c.proxy.OutDesc()
		c.outputObj = nil
	}
	c.requested = &size
	return goja.Undefined()
}

func (c *Context) jsSetSequentialMode(call goja.FunctionCall) goja.Value {
	if c.phase != PhaseSetup {
		throwError(c.vm, "Cannot set sequential mode outside of setup")
	}
	requireArgs(c.vm, call, 1, "setSequentialMode() requires a boolean argument")
	c.sequential = call.Argument(0).ToBoolean()
	return goja.Undefined()
}

func (c *Context) jsIsSequentialMode(goja.FunctionCall) goja.Value {
	return c.vm.ToValue(c.sequential)
}

func (c *Context) jsSetAutomaticColorCorrection(call goja.FunctionCall) goja.Value {
	if c.phase != PhaseSetup {
		throwError(c.vm, "Cannot set automatic color correction outside of setup")
	}
	requireArgs(c.vm, call, 1, "setAutomaticColorCorrection() requires a boolean argument")
	c.correction = call.Argument(0).ToBoolean()
	return goja.Undefined()
}

func (c *Context) jsUsesAutomaticColorCorrection(goja.FunctionCall) goja.Value {
	return c.vm.ToValue(c.correction)
}

func (c *Context) jsTime(goja.FunctionCall) goja.Value {
	return c.vm.ToValue(c.cfg.Time)
}

func (c *Context) jsBuildInfo(goja.FunctionCall) goja.Value {
	return c.vm.ToValue(version.BuildInfo())
}

func (c *Context) jsIsSetup(goja.FunctionCall) goja.Value {
	return c.vm.ToValue(c.phase == PhaseSetup)
}
