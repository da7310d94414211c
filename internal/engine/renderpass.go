// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/mobile-bungalow/golobulus/internal/jsapi"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/scripting"
)

// RenderPass collects the buffers for one call of the script's run. Buffers
// are borrowed until Submit returns.
type RenderPass struct {
	r      *Runner
	out    pixel.OutDesc
	inputs map[string]pixel.InDesc
}

// NewRenderPass starts a pass that renders into out.
func (r *Runner) NewRenderPass(out pixel.OutDesc) *RenderPass {
	return &RenderPass{r: r, out: out, inputs: make(map[string]pixel.InDesc)}
}

// LoadInput offers an image for the image parameter called name. Loading
// the same name twice replaces the earlier image.
func (p *RenderPass) LoadInput(name string, in pixel.InDesc) *RenderPass {
	p.inputs[name] = in
	return p
}

// Submit validates every buffer, runs the script and returns what it
// printed. When the script works at a size other than out's, its result is
// centered into out over a zeroed background. A script that asks for more
// than out can hold gets *OutputSizeTooLargeError; the request is kept so
// the next pass can be sized to match.
func (p *RenderPass) Submit() (string, error) {
	if err := p.out.Validate(); err != nil {
		return "", fmt.Errorf("output: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(p.inputs)) {
		if err := p.inputs[name].Validate(); err != nil {
			return "", fmt.Errorf("input %q: %w", name, err)
		}
	}

	r := p.r
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.module == nil {
		return "", errors.New("no script loaded")
	}

	available := p.out.Size()
	target := p.out
	var preset *pixel.Buffer
	if r.outputSize != nil && *r.outputSize != available {
		var err error
		if preset, err = pixel.AllocBuffer(p.out.Format, *r.outputSize); err != nil {
			return "", fmt.Errorf("script output size: %w", err)
		}
		target = preset.OutDesc()
	}

	// A corrected script sees the caller's pixels in straight order, and
	// finalize turns them back. Every error return restores them instead.
	straightened := false
	if r.colorCorrection && preset == nil && p.out.Format.Order() == pixel.OrderARGB {
		if err := pixel.ToStraight(p.out); err != nil {
			return "", err
		}
		straightened = true
	}
	restore := func() {
		if !straightened {
			return
		}
		if err := pixel.FromStraight(p.out); err != nil {
			r.log.Warn("failed to restore channel order", "file", r.fileName, "error", err)
		}
	}

	s := r.module.Begin()
	ctx := jsapi.NewRunContext(s.Runtime(), jsapi.RunConfig{
		Registry:        r.registry,
		Time:            r.time,
		Inputs:          p.inputs,
		Output:          target,
		Available:       available,
		Sequential:      r.sequential,
		ColorCorrection: r.colorCorrection,
	})
	obj, err := ctx.Object()
	if err != nil {
		s.Close()
		restore()
		return "", fmt.Errorf("failed to build run context: %w", err)
	}
	err = s.Call(scripting.EntryRun, s.Runtime().ToValue(obj))
	rest := s.Close()

	if size, ok := ctx.Oversize(); ok {
		restore()
		r.outputSize = &size
		stdout := rest
		var rt *scripting.RuntimeError
		if errors.As(err, &rt) {
			stdout = rt.Stdout + rest
		}
		r.log.Warn("script output size exceeds buffer", "file", r.fileName, "requested", size, "available", available)
		return stdout, &OutputSizeTooLargeError{Requested: size, Available: available, Stdout: stdout}
	}
	if err != nil {
		restore()
		var rt *scripting.RuntimeError
		if errors.As(err, &rt) {
			rt.Stdout += rest
			r.log.Error("script run failed", "file", r.fileName, "time", r.time, "error", rt.Stderr)
			return rt.Stdout, err
		}
		return rest, err
	}

	if size, ok := ctx.RequestedSize(); ok {
		r.outputSize = &size
	}

	proxy := ctx.Proxy()
	if proxy == nil {
		proxy = preset
	}
	if err := p.finalize(proxy, ctx.ColorCorrection()); err != nil {
		return rest, err
	}

	r.logStdout(rest)
	return rest, nil
}

// finalize copies a proxy result into the caller's buffer and restores the
// native channel order of corrected output.
func (p *RenderPass) finalize(proxy *pixel.Buffer, corrected bool) error {
	if proxy != nil {
		data, err := proxy.InDesc().Contiguous()
		if err != nil {
			return err
		}
		src := proxy.InDesc()
		src.Data = data

		p.out.Zero()
		if err := pixel.Blit(p.out, src); err != nil {
			return err
		}
	}
	if corrected {
		return pixel.FromStraight(p.out)
	}
	return nil
}
