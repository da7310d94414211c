// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/footage"
	"github.com/mobile-bungalow/golobulus/internal/instance"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

// frameFlags are the flags shared by every command that renders.
type frameFlags struct {
	sets   []string
	inputs []string
	size   string
	format string
}

func (f *frameFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.sets, "set", "s", nil, "Set a parameter, name=value (repeatable)")
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "Image for an image parameter, name=path (repeatable)")
	cmd.Flags().StringVar(&f.size, "size", "", "Output size WxH (default: first input's size, else config)")
	cmd.Flags().StringVar(&f.format, "format", "", "Output pixel format (default: config)")
}

func splitPair(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", s)
	}
	return strings.TrimSpace(name), value, nil
}

// parseSize reads "WxH".
func parseSize(s string) (pixel.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return pixel.Size{}, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return pixel.Size{}, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	return pixel.Size{Width: width, Height: height}, nil
}

// parseSets reads name=value pairs against the loaded script's parameters
// and reports every bad pair at once.
func parseSets(r *engine.Runner, sets []string) (map[string]variant.Variant, error) {
	var result *multierror.Error
	vals := make(map[string]variant.Variant, len(sets))
	for _, s := range sets {
		name, value, err := splitPair(s)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		like, ok := r.Var(name)
		if !ok {
			result = multierror.Append(result, &engine.MissingVarError{Name: name})
			continue
		}
		v, err := variant.Parse(like, value)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
			continue
		}
		vals[name] = v
	}
	return vals, result.ErrorOrNil()
}

func applySets(r *engine.Runner, vals map[string]variant.Variant) error {
	var result *multierror.Error
	for name, v := range vals {
		if err := r.SetVar(name, v); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}
	return result.ErrorOrNil()
}

// loadInputs decodes the name=path images. Inputs are loaded in f so
// scripts see them in the same format as their output.
func loadInputs(specs []string, f pixel.Format) (map[string]*pixel.Buffer, error) {
	var result *multierror.Error
	bufs := make(map[string]*pixel.Buffer, len(specs))
	for _, s := range specs {
		name, path, err := splitPair(s)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		buf, err := footage.Load(path, f)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
			continue
		}
		bufs[name] = buf
	}
	return bufs, result.ErrorOrNil()
}

func descs(bufs map[string]*pixel.Buffer) map[string]pixel.InDesc {
	out := make(map[string]pixel.InDesc, len(bufs))
	for name, b := range bufs {
		out[name] = b.InDesc()
	}
	return out
}

func (f *frameFlags) pixelFormat(a *app) (pixel.Format, error) {
	if f.format == "" {
		return a.config.PixelFormat(), nil
	}
	return pixel.ParseFormat(f.format)
}

// defaultSize is --size, else the first input's size, else the configured
// size. A size the script asks for overrides it.
func (f *frameFlags) defaultSize(a *app, inputs map[string]*pixel.Buffer) (pixel.Size, error) {
	if f.size != "" {
		return parseSize(f.size)
	}
	if len(f.inputs) > 0 {
		name, _, _ := splitPair(f.inputs[0])
		if b, ok := inputs[name]; ok {
			return b.Size(), nil
		}
	}
	return a.config.Size(), nil
}

// frame is everything needed to render a script: its instance, inputs,
// format and default size.
type frame struct {
	inst   *instance.Instance
	inputs map[string]*pixel.Buffer
	format pixel.Format
	size   pixel.Size
}

// prepare loads script, applies the flags and prints what setup printed.
func (f *frameFlags) prepare(a *app, cmd *cobra.Command, script string) (*frame, error) {
	format, err := f.pixelFormat(a)
	if err != nil {
		return nil, err
	}
	inputs, err := loadInputs(f.inputs, format)
	if err != nil {
		return nil, err
	}
	size, err := f.defaultSize(a, inputs)
	if err != nil {
		return nil, err
	}

	inst, stdout, err := a.newInstance(script)
	printScriptOutput(cmd.ErrOrStderr(), stdout)
	if err != nil {
		return nil, err
	}
	if err := f.apply(inst.Runner()); err != nil {
		return nil, err
	}
	return &frame{inst: inst, inputs: inputs, format: format, size: size}, nil
}

func (f *frameFlags) apply(r *engine.Runner) error {
	vals, err := parseSets(r, f.sets)
	if err != nil {
		return err
	}
	return applySets(r, vals)
}
