// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kr/text"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/footage"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

// NewDefaultRegistry returns a registry holding every built-in command.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, cmd := range builtins() {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
	return r
}

func builtins() []*Command {
	return []*Command{
		{
			Name:        "load",
			Usage:       "load <script.js>",
			Description: "Load a script and run its setup",
			LongHelp:    "The script's directory is added to the module search path so it can require its neighbours.",
			Category:    CategoryScript,
			Handler:     HandlerFunc(cmdLoad),
		},
		{
			Name:        "reload",
			Aliases:     []string{"r"},
			Usage:       "reload",
			Description: "Reload the current script from disk",
			LongHelp:    "Parameters keep their values when their name, kind and range still fit.",
			Category:    CategoryScript,
			Handler:     HandlerFunc(cmdReload),
		},
		{
			Name:        "unload",
			Usage:       "unload",
			Description: "Go back to the pass-through script",
			Category:    CategoryScript,
			Handler:     HandlerFunc(cmdUnload),
		},
		{
			Name:        "params",
			Aliases:     []string{"p"},
			Usage:       "params",
			Description: "List the script's parameters",
			Category:    CategoryParams,
			Handler:     HandlerFunc(cmdParams),
		},
		{
			Name:        "set",
			Usage:       "set <name> <value>",
			Description: "Set a parameter",
			LongHelp: "Values: true/false for bools, numbers for ints and floats, an option name or\n" +
				"number for enums, x,y for vectors and r,g,b[,a] for colors.",
			Category: CategoryParams,
			Handler:  HandlerFunc(cmdSet),
		},
		{
			Name:        "input",
			Usage:       "input <name> <image.png>",
			Description: "Load an image for an image parameter",
			Category:    CategoryParams,
			Handler:     HandlerFunc(cmdInput),
		},
		{
			Name:        "render",
			Usage:       "render [out.png]",
			Description: "Render one frame and save it as PNG",
			Category:    CategoryRender,
			Handler:     HandlerFunc(cmdRender),
		},
		{
			Name:        "size",
			Usage:       "size [width height]",
			Description: "Show or set the output size",
			Category:    CategoryRender,
			Handler:     HandlerFunc(cmdSize),
		},
		{
			Name:        "format",
			Usage:       "format [name]",
			Description: "Show or set the output pixel format",
			LongHelp:    "One of rgba8, argb8, rgba16, argb16ae, rgba32, argb32.",
			Category:    CategoryRender,
			Handler:     HandlerFunc(cmdFormat),
		},
		{
			Name:        "time",
			Aliases:     []string{"t"},
			Usage:       "time [seconds]",
			Description: "Show or set the render time",
			Category:    CategoryRender,
			Handler:     HandlerFunc(cmdTime),
		},
		{
			Name:        "venv",
			Usage:       "venv [dir|clear]",
			Description: "Show, set or clear the library directory",
			LongHelp:    "Modules in the library directory can be required by bare name. Changing it reloads the script.",
			Category:    CategoryConfig,
			Handler:     HandlerFunc(cmdVenv),
		},
		{
			Name:        "help",
			Aliases:     []string{"h", "?"},
			Usage:       "help [command]",
			Description: "Show help",
			Category:    CategorySession,
			Handler:     HandlerFunc(cmdHelp),
		},
		{
			Name:        "quit",
			Aliases:     []string{"exit", "q"},
			Usage:       "quit",
			Description: "Leave the console",
			Category:    CategorySession,
			Handler: HandlerFunc(func([]string, *Context) error {
				return ErrQuit
			}),
		},
	}
}

func usage(name string) error {
	return fmt.Errorf("usage: %s", name)
}

// printStdout writes script output indented under the command.
func printStdout(ctx *Context, stdout string) {
	if stdout == "" {
		return
	}
	_, _ = fmt.Fprint(ctx.Out, text.Indent(stdout, "  | "))
	if !strings.HasSuffix(stdout, "\n") {
		_, _ = fmt.Fprintln(ctx.Out)
	}
}

func cmdLoad(args []string, ctx *Context) error {
	if len(args) != 1 {
		return usage("load <script.js>")
	}
	stdout, err := ctx.Instance.LoadFile(args[0])
	printStdout(ctx, stdout)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.Out, "Loaded %s\n", args[0])
	return nil
}

func cmdReload(args []string, ctx *Context) error {
	stdout, err := ctx.Instance.Reload()
	printStdout(ctx, stdout)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(ctx.Out, "Reloaded")
	return nil
}

func cmdUnload(args []string, ctx *Context) error {
	if err := ctx.Instance.Unload(); err != nil {
		return err
	}
	clear(ctx.Inputs)
	_, _ = fmt.Fprintln(ctx.Out, "Unloaded")
	return nil
}

func cmdParams(args []string, ctx *Context) error {
	r := ctx.Instance.Runner()
	vars := r.Vars()
	if len(vars) == 0 {
		_, _ = fmt.Fprintln(ctx.Out, "No parameters")
		return nil
	}
	for _, e := range vars {
		_, _ = fmt.Fprintf(ctx.Out, "  %-20s %-10s %s\n", e.Name, e.Value.Kind(), variant.Describe(e.Value))
	}
	if size, ok := r.RequestedOutputSize(); ok {
		_, _ = fmt.Fprintf(ctx.Out, "  requested output size %s\n", size)
	}
	if r.IsSequential() {
		_, _ = fmt.Fprintln(ctx.Out, "  sequential")
	}
	return nil
}

func cmdSet(args []string, ctx *Context) error {
	if len(args) < 2 {
		return usage("set <name> <value>")
	}
	r := ctx.Instance.Runner()
	name := args[0]
	like, ok := r.Var(name)
	if !ok {
		return &engine.MissingVarError{Name: name}
	}
	v, err := variant.Parse(like, strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := r.SetVar(name, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	now, _ := r.Var(name)
	_, _ = fmt.Fprintf(ctx.Out, "%s = %s\n", name, variant.Describe(now))
	return nil
}

func cmdInput(args []string, ctx *Context) error {
	if len(args) != 2 {
		return usage("input <name> <image.png>")
	}
	v, ok := ctx.Instance.Runner().Var(args[0])
	if !ok {
		return &engine.MissingVarError{Name: args[0]}
	}
	if v.Kind() != variant.KindImage {
		return fmt.Errorf("%s is a %s parameter, not an image", args[0], v.Kind())
	}
	buf, err := footage.Load(args[1], ctx.Format)
	if err != nil {
		return err
	}
	ctx.Inputs[args[0]] = buf
	_, _ = fmt.Fprintf(ctx.Out, "%s = %s (%s)\n", args[0], args[1], buf.Size())
	return nil
}

func cmdRender(args []string, ctx *Context) error {
	if len(args) > 1 {
		return usage("render [out.png]")
	}
	path := ctx.OutputPath
	if len(args) == 1 {
		path = args[0]
	}

	out, err := ctx.Instance.RenderFrame(ctx.Time, ctx.Format, ctx.Size, ctx.inputDescs())
	if l, ok := ctx.Instance.Logs(ctx.Time); ok {
		printStdout(ctx, l.Stdout)
	}
	if err != nil {
		return err
	}

	ctx.Last = out
	if err := footage.Save(path, out.InDesc()); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.Out, "Wrote %s (%s, t=%g)\n", path, out.Size(), ctx.Time)
	if ctx.Preview {
		return footage.Preview(ctx.Out, out.InDesc())
	}
	return nil
}

func cmdSize(args []string, ctx *Context) error {
	switch len(args) {
	case 0:
		_, _ = fmt.Fprintf(ctx.Out, "size %s\n", ctx.Size)
		return nil
	case 2:
	default:
		return usage("size [width height]")
	}
	w, errW := strconv.Atoi(args[0])
	h, errH := strconv.Atoi(args[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return fmt.Errorf("invalid size %q x %q", args[0], args[1])
	}
	ctx.Size = pixel.Size{Width: w, Height: h}
	_, _ = fmt.Fprintf(ctx.Out, "size %s\n", ctx.Size)
	return nil
}

func cmdFormat(args []string, ctx *Context) error {
	switch len(args) {
	case 0:
	case 1:
		f, err := pixel.ParseFormat(args[0])
		if err != nil {
			return err
		}
		ctx.Format = f
	default:
		return usage("format [name]")
	}
	_, _ = fmt.Fprintf(ctx.Out, "format %s\n", ctx.Format)
	return nil
}

func cmdTime(args []string, ctx *Context) error {
	switch len(args) {
	case 0:
	case 1:
		t, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid time %q", args[0])
		}
		ctx.Time = t
	default:
		return usage("time [seconds]")
	}
	_, _ = fmt.Fprintf(ctx.Out, "time %g\n", ctx.Time)
	return nil
}

func cmdVenv(args []string, ctx *Context) error {
	var (
		stdout string
		err    error
	)
	switch {
	case len(args) == 0:
		dir := ctx.Instance.State().VenvPath
		if dir == "" {
			dir = "(none)"
		}
		_, _ = fmt.Fprintf(ctx.Out, "venv %s\n", dir)
		return nil
	case len(args) == 1 && args[0] == "clear":
		stdout, err = ctx.Instance.ClearVenvPath()
	case len(args) == 1:
		stdout, err = ctx.Instance.SetVenvPath(args[0])
	default:
		return usage("venv [dir|clear]")
	}
	printStdout(ctx, stdout)
	return err
}

func cmdHelp(args []string, ctx *Context) error {
	if ctx.Registry == nil {
		return errors.New("no command registry")
	}
	if len(args) == 0 {
		ShowHelp(ctx.Out, ctx.Registry)
		return nil
	}
	cmd, ok := ctx.Registry.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	ShowCommandHelp(ctx.Out, cmd)
	return nil
}
