// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package command

import (
	"fmt"
	"io"
	"strings"
)

func ShowHelp(w io.Writer, registry *Registry) {
	_, _ = fmt.Fprintln(w, "\nAvailable commands:")

	categories := registry.ByCategory()
	for _, category := range categoryOrder {
		commands, exists := categories[category]
		if !exists || len(commands) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(w, "\n%s:\n", category)
		for _, cmd := range commands {
			aliasStr := ""
			if len(cmd.Aliases) > 0 {
				aliasStr = fmt.Sprintf(" (aliases: %s)", strings.Join(cmd.Aliases, ", "))
			}
			_, _ = fmt.Fprintf(w, "  %-32s - %s%s\n", cmd.Usage, cmd.Description, aliasStr)
		}
	}

	_, _ = fmt.Fprintln(w, "\nFor detailed help on a command, type: help <command>")
}

func ShowCommandHelp(w io.Writer, cmd *Command) {
	_, _ = fmt.Fprintf(w, "\nCommand: %s\n", cmd.Name)

	if len(cmd.Aliases) > 0 {
		_, _ = fmt.Fprintf(w, "Aliases: %s\n", strings.Join(cmd.Aliases, ", "))
	}

	_, _ = fmt.Fprintf(w, "Usage: %s\n", cmd.Usage)
	_, _ = fmt.Fprintf(w, "Category: %s\n", cmd.Category)
	_, _ = fmt.Fprintf(w, "\nDescription:\n%s\n", cmd.Description)

	if cmd.LongHelp != "" {
		_, _ = fmt.Fprintf(w, "\nDetails:\n%s\n", cmd.LongHelp)
	}
}
