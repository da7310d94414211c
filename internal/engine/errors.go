// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package engine

import (
	"fmt"

	"github.com/mobile-bungalow/golobulus/internal/jsapi"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/scripting"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

// Error values callers match with errors.Is and errors.As. They live in the
// packages that raise them and are collected here.
var (
	// ErrInvalidModule indicates the script failed to compile or evaluate
	ErrInvalidModule = scripting.ErrInvalidModule

	// ErrMissingSetup indicates the script has no callable setup
	ErrMissingSetup = scripting.ErrMissingSetup

	// ErrMissingRun indicates the script has no callable run
	ErrMissingRun = scripting.ErrMissingRun

	// ErrAsync indicates run returned a promise that can never settle
	ErrAsync = scripting.ErrAsync

	// ErrPathUpdate indicates a search path could not be added or removed
	ErrPathUpdate = scripting.ErrPathUpdate

	// ErrDllSearch indicates the native library search path could not be updated
	ErrDllSearch = scripting.ErrDllSearch

	// ErrZeroDimension indicates a buffer with zero width or height
	ErrZeroDimension = pixel.ErrZeroDimension

	// ErrNoncontiguous indicates pixel memory that is not one packed block
	ErrNoncontiguous = pixel.ErrNoncontiguous

	// ErrCasting indicates pixel memory that cannot be viewed as its element type
	ErrCasting = jsapi.ErrCasting

	// ErrTypeMismatch indicates a value of the wrong kind for a parameter
	ErrTypeMismatch = variant.ErrTypeMismatch
	// ErrRejected indicates a value outside a parameter's constraints
	ErrRejected = variant.ErrRejected
)

type (
	InvalidModuleError = scripting.InvalidModuleError
	RuntimeError       = scripting.RuntimeError
	SizeMismatchError  = pixel.SizeMismatchError
	MissingVarError    = variant.MissingVarError
)

// OutputSizeTooLargeError is returned when run asks for an output larger
// than the buffer it was given. The request is remembered, so a retry with
// a buffer of the requested size succeeds.
type OutputSizeTooLargeError struct {
	Requested pixel.Size
	Available pixel.Size
	Stdout    string
}

func (e *OutputSizeTooLargeError) Error() string {
	return fmt.Sprintf("You requested an output of size %s, that was larger than the buffer, %s, provided",
		e.Requested, e.Available)
}
