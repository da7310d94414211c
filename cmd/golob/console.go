// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/mobile-bungalow/golobulus/internal/command"
	"github.com/mobile-bungalow/golobulus/internal/footage"
)

func newConsoleCommand(a *app) *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "console [SCRIPT]",
		Short: "Interactive console for loading, tweaking and rendering a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			var script string
			if len(args) == 1 {
				script = args[0]
			}
			inst, stdout, err := a.newInstance(script)
			printScriptOutput(cmd.ErrOrStderr(), stdout)
			if err != nil {
				return err
			}
			defer inst.Close()

			reg := command.NewDefaultRegistry()
			ctx := command.NewContext(inst)
			ctx.Out = cmd.OutOrStdout()
			ctx.Registry = reg
			ctx.Format = a.config.PixelFormat()
			ctx.Size = a.config.Size()
			ctx.Preview = preview

			runConsole(a, reg, ctx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", footage.CanPreview(os.Stdout), "Show rendered frames inline (iTerm2)")
	return cmd
}

func prompt(ctx *command.Context) string {
	name := "golob"
	if p := ctx.Instance.State().LastKnownPath; p != "" {
		name = p
	}
	return fmt.Sprintf("\033[32m%s>\033[0m ", name)
}

func runConsole(a *app, reg *command.Registry, ctx *command.Context) {
	fmt.Fprintln(ctx.Out, titleStyle.Render("golob console"), subtleStyle.Render("type 'help' for commands"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt(ctx),
		HistoryFile:       a.config.HistoryFile,
		HistoryLimit:      1000,
		AutoComplete:      command.NewCompleter(reg, ctx),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(ctx.Out, "Failed to create readline instance, falling back to basic input: %v\n", err)
		runBasicConsole(reg, ctx, os.Stdin)
		return
	}
	defer func() {
		_ = rl.Close()
	}()

	for {
		rl.SetPrompt(prompt(ctx))

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					fmt.Fprintln(ctx.Out, "Use 'quit' or 'exit' to exit")
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			fmt.Fprintf(ctx.Out, "Error reading input: %v\n", err)
			continue
		}

		if !dispatch(reg, ctx, line) {
			return
		}
	}
}

// runBasicConsole reads commands line by line when readline is unavailable.
func runBasicConsole(reg *command.Registry, ctx *command.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(ctx.Out, prompt(ctx))
		if !scanner.Scan() {
			return
		}
		if !dispatch(reg, ctx, scanner.Text()) {
			return
		}
	}
}

// dispatch runs one line and reports whether the console should continue.
func dispatch(reg *command.Registry, ctx *command.Context, line string) bool {
	err := reg.Dispatch(line, ctx)
	switch {
	case errors.Is(err, command.ErrQuit):
		return false
	case err != nil:
		fmt.Fprintf(ctx.Out, "%s %v\n", errorStyle.Render("Error:"), err)
	}
	return true
}
