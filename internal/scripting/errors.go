// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package scripting

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/dop251/goja"
)

var (
	// ErrInvalidModule matches every *InvalidModuleError
	ErrInvalidModule = errors.New("invalid module")

	// ErrMissingSetup indicates the module defines no callable setup()
	ErrMissingSetup = errors.New("the loaded module was missing the `setup()` function")

	// ErrMissingRun indicates the module defines no callable run()
	ErrMissingRun = errors.New("the loaded module was missing the `run()` function")

	// ErrPathUpdate indicates the module search path could not be changed
	ErrPathUpdate = errors.New("could not update the module search path")

	// ErrDllSearch indicates the native library search path could not be changed
	ErrDllSearch = errors.New("error updating dll path, cannot start")

	// ErrAsync indicates a suspended run could not be driven to completion
	ErrAsync = errors.New("error running async code")

	// ErrClosed indicates the interpreter was closed
	ErrClosed = errors.New("interpreter is closed")
)

// InvalidModuleError reports source that failed to compile or threw while
// its top level was evaluated.
type InvalidModuleError struct {
	Message string
}

func (e *InvalidModuleError) Error() string {
	return "invalid module: " + e.Message
}

func (e *InvalidModuleError) Is(target error) bool {
	return target == ErrInvalidModule
}

// RuntimeError reports an exception raised by script code. Stderr holds the
// message, prefixed with "line N: " when the line is known. Stdout holds
// whatever the script printed before failing.
type RuntimeError struct {
	Stderr string
	Stdout string
}

func (e *RuntimeError) Error() string {
	if e.Stdout == "" {
		return "runtime error: " + e.Stderr
	}
	return fmt.Sprintf("runtime error: %s\nstdout content: %q", e.Stderr, e.Stdout)
}

// scriptLine returns the first script line found in a captured stack.
func scriptLine(stack []goja.StackFrame) int {
	for i := range stack {
		if line := stack[i].Position().Line; line > 0 {
			return line
		}
	}
	return 0
}

// describe renders a thrown value the way a JS console would.
func describe(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	return v.String()
}

// exceptionMessage formats a goja exception as "line N: message".
func exceptionMessage(ex *goja.Exception) string {
	msg := describe(ex.Value())
	if line := scriptLine(ex.Stack()); line > 0 {
		return fmt.Sprintf("line %d: %s", line, msg)
	}
	return msg
}

// stackLine matches the first "file:line:col(pc)" frame of a stack property.
var stackLine = regexp.MustCompile(`:(\d+):\d+\(\d+\)`)

// rejectionMessage formats the reason a promise was rejected with.
func rejectionMessage(reason goja.Value) string {
	msg := describe(reason)
	obj, ok := reason.(*goja.Object)
	if !ok {
		return msg
	}
	if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) {
		if m := stackLine.FindStringSubmatch(stack.String()); m != nil {
			return "line " + m[1] + ": " + msg
		}
	}
	return msg
}

// runtimeError converts an error returned by a goja call into a *RuntimeError.
func runtimeError(err error, stdout string) *RuntimeError {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return &RuntimeError{Stderr: exceptionMessage(ex), Stdout: stdout}
	}
	return &RuntimeError{Stderr: err.Error(), Stdout: stdout}
}
