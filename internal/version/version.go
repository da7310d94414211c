// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package version provides build information for golob and for scripts
// that call ctx.buildInfo(). Values are injected at build time via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// These variables are set at build time via -ldflags.
// Example: go build -ldflags "-X github.com/mobile-bungalow/golobulus/internal/version.Version=0.3.0 -X ...Profile=Release"
var (
	Version = "dev"

	GitCommit = "unknown"

	BuildTime = "unknown"

	// Profile is Debug or Release.
	Profile = "Debug"
)

// String returns a formatted version string suitable for --version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s/%s)",
		Version, GitCommit, BuildTime, runtime.GOOS, runtime.GOARCH)
}

// BuildInfo is the short form scripts see.
func BuildInfo() string {
	return fmt.Sprintf("version: %s, %s", Version, Profile)
}
