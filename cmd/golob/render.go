// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobile-bungalow/golobulus/internal/footage"
)

type renderOptions struct {
	frameFlags
	output  string
	time    float64
	preview bool
}

func newRenderCommand(a *app) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render SCRIPT",
		Short: "Render one frame of a script to PNG",
		Example: `  golob render blur.js -i input=plate.png -s radius=4 -o blurred.png
  golob render noise.js --size 640x360 --time 2.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.prepare(a, cmd, args[0])
			if err != nil {
				cmd.SilenceUsage = true
				return err
			}
			defer f.inst.Close()

			if err := f.render(cmd, opts.time, opts.output, opts.preview); err != nil {
				cmd.SilenceUsage = true
				return err
			}
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "out.png", "Output PNG path")
	cmd.Flags().Float64VarP(&opts.time, "time", "t", 0, "Time in seconds passed to the script")
	cmd.Flags().BoolVar(&opts.preview, "preview", footage.CanPreview(os.Stdout), "Show the frame inline (iTerm2)")
	return cmd
}

// render draws the frame at t and writes it to path.
func (f *frame) render(cmd *cobra.Command, t float64, path string, preview bool) error {
	out, err := f.inst.RenderFrame(t, f.format, f.size, descs(f.inputs))
	if l, ok := f.inst.Logs(t); ok {
		printScriptOutput(cmd.ErrOrStderr(), l.Stdout)
	}
	if err != nil {
		return err
	}

	if err := footage.Save(path, out.InDesc()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
		okStyle.Render("wrote"), path, subtleStyle.Render(fmt.Sprintf("(%s %s, t=%g)", out.Size(), out.Format, t)))
	if preview {
		return footage.Preview(cmd.OutOrStdout(), out.InDesc())
	}
	return nil
}
