// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kr/text"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	nameStyle = lipgloss.NewStyle().
			Width(20)

	kindStyle = lipgloss.NewStyle().
			Width(10).
			Foreground(lipgloss.Color("62"))
)

// printScriptOutput writes what a script printed, indented under a dim
// marker so it stands apart from golob's own messages.
func printScriptOutput(w io.Writer, stdout string) {
	if stdout == "" {
		return
	}
	if !strings.HasSuffix(stdout, "\n") {
		stdout += "\n"
	}
	_, _ = fmt.Fprint(w, text.Indent(stdout, subtleStyle.Render("│ ")))
}
