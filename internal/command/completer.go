// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package command

import (
	"github.com/chzyer/readline"

	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

// NewCompleter completes command names, parameter names for set and input,
// and format names. Parameter names are read from the loaded script on
// every keystroke so they follow reloads.
func NewCompleter(reg *Registry, ctx *Context) readline.AutoCompleter {
	params := func(image bool) func(string) []string {
		return func(string) []string {
			var names []string
			for _, e := range ctx.Instance.Runner().Vars() {
				if (e.Value.Kind() == variant.KindImage) == image {
					names = append(names, e.Name)
				}
			}
			return names
		}
	}

	var items []readline.PrefixCompleterInterface
	for _, cmd := range reg.All() {
		switch cmd.Name {
		case "set":
			items = append(items, readline.PcItem(cmd.Name, readline.PcItemDynamic(params(false))))
		case "input":
			items = append(items, readline.PcItem(cmd.Name, readline.PcItemDynamic(params(true))))
		case "format":
			var formats []readline.PrefixCompleterInterface
			for f := pixel.Rgba8; f.Valid(); f++ {
				formats = append(formats, readline.PcItem(f.String()))
			}
			items = append(items, readline.PcItem(cmd.Name, formats...))
		case "help":
			var names []readline.PrefixCompleterInterface
			for _, c := range reg.All() {
				names = append(names, readline.PcItem(c.Name))
			}
			items = append(items, readline.PcItem(cmd.Name, names...))
		default:
			items = append(items, readline.PcItem(cmd.Name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
