// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/footage"
	"github.com/mobile-bungalow/golobulus/internal/jobs"
	"github.com/mobile-bungalow/golobulus/internal/util"
)

type sequenceOptions struct {
	frameFlags
	output string
	frames int
	start  int
	fps    float64
}

func newSequenceCommand(a *app) *cobra.Command {
	opts := &sequenceOptions{}
	cmd := &cobra.Command{
		Use:   "sequence SCRIPT",
		Short: "Render frames of a script in the background into a directory",
		Long: `Sequence renders frames START..START+FRAMES-1 in order on a background job,
writing one PNG per frame named by frame number. Sequential scripts, which
may keep state between frames, must be rendered this way. Ctrl-C cancels
the job and removes the partial output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return opts.run(a, cmd, args[0])
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (default: SCRIPT name + _frames); _N is appended if it exists")
	cmd.Flags().IntVarP(&opts.frames, "frames", "n", 24, "Number of frames")
	cmd.Flags().IntVar(&opts.start, "start", 0, "First frame number")
	cmd.Flags().Float64Var(&opts.fps, "fps", 24, "Frames per second; frame N renders at time N/fps")
	return cmd
}

// loadRunner creates a Runner for script outside of any Instance, since a
// job takes ownership of the Runner it renders with.
func (a *app) loadRunner(cmd *cobra.Command, script string) (*engine.Runner, error) {
	abs, err := filepath.Abs(script)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	r, err := engine.New(a.engineOptions()...)
	if err != nil {
		return nil, err
	}
	if a.config.VenvPath != "" {
		r.SetVenvPath(a.config.VenvPath)
	}
	r.SetScriptParentDirectory(filepath.Dir(abs))
	stdout, err := r.LoadScript(string(src), abs)
	printScriptOutput(cmd.ErrOrStderr(), stdout)
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (o *sequenceOptions) run(a *app, cmd *cobra.Command, script string) error {
	if o.frames <= 0 || o.start < 0 || o.fps <= 0 {
		return fmt.Errorf("--frames and --fps must be positive and --start non-negative")
	}

	format, err := o.pixelFormat(a)
	if err != nil {
		return err
	}
	inputs, err := loadInputs(o.inputs, format)
	if err != nil {
		return err
	}
	size, err := o.defaultSize(a, inputs)
	if err != nil {
		return err
	}

	r, err := a.loadRunner(cmd, script)
	if err != nil {
		return err
	}
	vars, err := parseSets(r, o.sets)
	if err != nil {
		r.Close()
		return err
	}
	if requested, ok := r.RequestedOutputSize(); ok {
		size = requested
	}

	base := o.output
	if base == "" {
		base = strings.TrimSuffix(script, filepath.Ext(script)) + "_frames"
	}
	dir, err := footage.CreateSuffixedDir(base)
	if err != nil {
		r.Close()
		return err
	}

	last := o.start + o.frames - 1
	out := cmd.OutOrStdout()
	written := 0
	pool := jobs.NewPool(util.Logger, func(_ jobs.JobID, s jobs.Status) {
		if s.State == jobs.Ready || s.State == jobs.Done {
			written++
			fmt.Fprintf(out, "\r%s %d/%d", subtleStyle.Render("frame"), written, o.frames)
		}
	})
	defer pool.Close()

	id, err := pool.Spawn(r, jobs.Desc{Format: format, Size: size, Directory: dir, LastFrame: last})
	if err != nil {
		r.Close()
		return err
	}
	fmt.Fprintf(out, "%s %s %s\n", titleStyle.Render("rendering"), dir,
		subtleStyle.Render(fmt.Sprintf("(%d frames, %s %s)", o.frames, size, format.Straight())))

	for i := o.start; i <= last; i++ {
		f := jobs.Frame{Time: float64(i) / o.fps, Index: i, Inputs: inputs}
		if i == o.start {
			f.Vars = vars
		}
		if err := pool.Submit(id, f); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = pool.Cancel(id)
	}()

	st, err := pool.Wait(context.Background(), id)
	fmt.Fprintln(out)
	if err != nil {
		return err
	}

	switch st.State {
	case jobs.Done:
		fmt.Fprintf(out, "%s %d frames in %s\n", okStyle.Render("done"), o.frames, dir)
		return nil
	case jobs.Cancelled:
		fmt.Fprintln(out, warnStyle.Render("cancelled"))
		return nil
	default:
		printScriptOutput(cmd.ErrOrStderr(), st.Stdout)
		return st.Err
	}
}
