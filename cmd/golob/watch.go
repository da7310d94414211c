// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mobile-bungalow/golobulus/internal/footage"
	"github.com/mobile-bungalow/golobulus/internal/util"
	"github.com/mobile-bungalow/golobulus/internal/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "watch SCRIPT",
		Short: "Re-render a script every time it is saved",
		Long: `Watch loads SCRIPT, renders one frame, then reloads and renders again
whenever the file changes. Parameter values survive reloads when the
parameter keeps its name, kind and range. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			f, err := opts.prepare(a, cmd, args[0])
			if err != nil {
				return err
			}
			defer f.inst.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			show := func() {
				if err := f.render(cmd, opts.time, opts.output, opts.preview); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", errorStyle.Render("render failed:"), err)
				}
			}
			show()

			reload := func() {
				stdout, err := f.inst.Reload()
				printScriptOutput(cmd.ErrOrStderr(), stdout)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", errorStyle.Render("reload failed:"), err)
					return
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("reloaded"), args[0])
				show()
			}

			done, err := watch.File(ctx, args[0], reload, watch.Options{
				Delay:  a.config.WatchDebounce,
				Logger: util.Logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("watching "+args[0]+", Ctrl-C to stop"))

			<-done
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "out.png", "Output PNG path")
	cmd.Flags().Float64VarP(&opts.time, "time", "t", 0, "Time in seconds passed to the script")
	cmd.Flags().BoolVar(&opts.preview, "preview", footage.CanPreview(os.Stdout), "Show each frame inline (iTerm2)")
	return cmd
}
