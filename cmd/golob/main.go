// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Command golob runs image-processing scripts from the command line: single
// frames, live reloads, background sequences and an interactive console.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/instance"
	"github.com/mobile-bungalow/golobulus/internal/scripting"
	"github.com/mobile-bungalow/golobulus/internal/util"
	"github.com/mobile-bungalow/golobulus/internal/version"
)

// app is the state shared by every subcommand once the root has loaded the
// configuration.
type app struct {
	dataDir  string
	logLevel string
	config   util.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "golob",
		Short:         "Run image-processing scripts",
		Version:       version.String(),
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.dataDir, "data", "d", "", "Data directory (default: ~/.golob or GOLOB_DATA)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	root.AddCommand(
		newRenderCommand(a),
		newParamsCommand(a),
		newWatchCommand(a),
		newSequenceCommand(a),
		newConsoleCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) init() error {
	dataDir := util.GetDataDir(a.dataDir)
	config, err := util.LoadConfig(dataDir)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.dataDir = dataDir
	a.config = config

	level := config.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	util.InitLogger(level)
	util.Debug("configuration loaded", "data_dir", dataDir, "format", config.Format, "size", config.Size())

	for _, dir := range config.LibraryDirs {
		if err := scripting.UpdateLibrarySearchPath(dir); err != nil {
			util.Logger.Warn("skipping library directory", "dir", dir, "error", err)
		}
	}
	return nil
}

func (a *app) engineOptions() []engine.Option {
	return []engine.Option{engine.WithBounds(a.config.Bounds()), engine.WithLogger(util.Logger)}
}

// newInstance creates an Instance with the configured library directory and
// loads script into it.
func (a *app) newInstance(script string) (*instance.Instance, string, error) {
	inst, err := instance.New(a.engineOptions()...)
	if err != nil {
		return nil, "", err
	}
	if a.config.VenvPath != "" {
		if _, err := inst.SetVenvPath(a.config.VenvPath); err != nil {
			return nil, "", err
		}
	}
	if script == "" {
		return inst, "", nil
	}
	stdout, err := inst.LoadFile(script)
	return inst, stdout, err
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "golob %s\n", version.String())
		},
	}
}

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.DisplayConfig(cmd.OutOrStdout(), a.dataDir)
		},
	}
}
