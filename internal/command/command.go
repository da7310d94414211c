// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package command implements the interactive console: a registry of named
// commands operating on one script instance.
package command

// Command represents a console command with metadata
type Command struct {
	Name        string   // Primary command name
	Aliases     []string // Alternative names (e.g., "q" for "quit")
	Usage       string   // Usage string: "set <name> <value>"
	Description string   // One-line description
	LongHelp    string   // Multi-line detailed help (optional)
	Category    string   // "Script", "Parameters", etc.
	Handler     Handler  // Command execution handler
}

// Handler is the interface all command handlers must implement
type Handler interface {
	Execute(args []string, ctx *Context) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(args []string, ctx *Context) error

// Execute implements the Handler interface
func (f HandlerFunc) Execute(args []string, ctx *Context) error {
	return f(args, ctx)
}

// Category constants for organizing commands
const (
	CategoryScript  = "Script"
	CategoryParams  = "Parameters"
	CategoryRender  = "Rendering"
	CategoryConfig  = "Configuration"
	CategorySession = "Session"
)

// categoryOrder is the order categories are listed in help.
var categoryOrder = []string{
	CategoryScript,
	CategoryParams,
	CategoryRender,
	CategoryConfig,
	CategorySession,
}
