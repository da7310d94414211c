// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

// paramDoc is the YAML form of one parameter.
type paramDoc struct {
	Name    string           `yaml:"name"`
	Kind    string           `yaml:"kind"`
	Value   any              `yaml:"value,omitempty"`
	Default any              `yaml:"default,omitempty"`
	Min     any              `yaml:"min,omitempty"`
	Max     any              `yaml:"max,omitempty"`
	Options map[string]int32 `yaml:"options,omitempty"`
}

// scriptDoc is the YAML form of a script's declarations.
type scriptDoc struct {
	Script                   string      `yaml:"script"`
	Params                   []paramDoc  `yaml:"params"`
	OutputSize               *pixel.Size `yaml:"output_size,omitempty"`
	Sequential               bool        `yaml:"sequential,omitempty"`
	AutomaticColorCorrection bool        `yaml:"automatic_color_correction,omitempty"`
}

func describeScript(r *engine.Runner) scriptDoc {
	doc := scriptDoc{
		Script:                   r.FileName(),
		Sequential:               r.IsSequential(),
		AutomaticColorCorrection: r.UsesAutomaticColorCorrection(),
	}
	if size, ok := r.RequestedOutputSize(); ok {
		doc.OutputSize = &size
	}
	for _, e := range r.Vars() {
		p := paramDoc{Name: e.Name, Kind: e.Value.Kind().String()}
		switch v := e.Value.(type) {
		case *variant.Image:
		case *variant.Bool:
			p.Value, p.Default = v.Current, v.Default
		case *variant.Color:
			p.Value, p.Default = v.Current, v.Default
		case *variant.TaggedInt:
			p.Value, p.Default, p.Options = v.Current, v.Default, v.Tags
		case *variant.Int:
			p.Value, p.Default, p.Min, p.Max = v.Current, v.Default, v.Min, v.Max
		case *variant.Float:
			p.Value, p.Default, p.Min, p.Max = v.Current, v.Default, v.Min, v.Max
		case *variant.Vector2:
			p.Value, p.Default, p.Min, p.Max = v.Current, v.Default, v.Min, v.Max
		}
		doc.Params = append(doc.Params, p)
	}
	return doc
}

func printParams(w io.Writer, r *engine.Runner) {
	fmt.Fprintln(w, titleStyle.Render(r.FileName()))
	vars := r.Vars()
	if len(vars) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("  no parameters"))
	}
	for _, e := range vars {
		fmt.Fprintf(w, "  %s%s%s\n",
			nameStyle.Render(e.Name),
			kindStyle.Render(e.Value.Kind().String()),
			variant.Describe(e.Value))
	}
	if size, ok := r.RequestedOutputSize(); ok {
		fmt.Fprintf(w, "  %s %s\n", subtleStyle.Render("output size"), size)
	}
	if r.IsSequential() {
		fmt.Fprintf(w, "  %s\n", warnStyle.Render("sequential: render with 'golob sequence'"))
	}
	if r.UsesAutomaticColorCorrection() {
		fmt.Fprintf(w, "  %s\n", subtleStyle.Render("automatic color correction"))
	}
}

func newParamsCommand(a *app) *cobra.Command {
	var (
		asYAML bool
		sets   []string
	)
	cmd := &cobra.Command{
		Use:   "params SCRIPT",
		Short: "List the parameters a script declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			inst, stdout, err := a.newInstance(args[0])
			printScriptOutput(cmd.ErrOrStderr(), stdout)
			if err != nil {
				return err
			}
			defer inst.Close()

			r := inst.Runner()
			f := frameFlags{sets: sets}
			if err := f.apply(r); err != nil {
				return err
			}

			if !asYAML {
				printParams(cmd.OutOrStdout(), r)
				return nil
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(describeScript(r)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")
	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "Set a parameter before printing, name=value (repeatable)")
	return cmd
}
