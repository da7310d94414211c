// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package command

import (
	"io"
	"os"

	"github.com/mobile-bungalow/golobulus/internal/instance"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
)

// Context is the console state command handlers work on.
type Context struct {
	Instance *instance.Instance
	Out      io.Writer

	// Output buffer settings for render.
	Format pixel.Format
	Size   pixel.Size
	Time   float64

	// OutputPath is where render writes when given no path.
	OutputPath string
	// Preview shows each render inline in the terminal.
	Preview bool

	// Inputs are the images loaded with the input command, by parameter name.
	Inputs map[string]*pixel.Buffer
	// Last is the most recent rendered frame.
	Last *pixel.Buffer

	// Registry is set by the console so help can list commands.
	Registry *Registry
}

// NewContext creates a console context rendering 512x512 RGBA8 frames.
func NewContext(inst *instance.Instance) *Context {
	return &Context{
		Instance:   inst,
		Out:        os.Stdout,
		Format:     pixel.Rgba8,
		Size:       pixel.Size{Width: 512, Height: 512},
		OutputPath: "out.png",
		Inputs:     make(map[string]*pixel.Buffer),
	}
}

func (ctx *Context) inputDescs() map[string]pixel.InDesc {
	descs := make(map[string]pixel.InDesc, len(ctx.Inputs))
	for name, buf := range ctx.Inputs {
		descs[name] = buf.InDesc()
	}
	return descs
}
