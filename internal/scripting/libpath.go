// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// libraryPathVar returns the environment variable the platform's loader
// consults for native libraries.
func libraryPathVar() string {
	switch runtime.GOOS {
	case "windows":
		return "PATH"
	case "darwin":
		return "DYLD_LIBRARY_PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}

// UpdateLibrarySearchPath prepends dir to the native library search path of
// the current process. The directory must exist.
func UpdateLibrarySearchPath(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDllSearch, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrDllSearch, dir)
	}

	key := libraryPathVar()
	current := os.Getenv(key)
	entries := filepath.SplitList(current)
	if slices.Contains(entries, abs) {
		return nil
	}

	updated := abs
	if current != "" {
		updated = strings.Join([]string{abs, current}, string(os.PathListSeparator))
	}
	if err := os.Setenv(key, updated); err != nil {
		return fmt.Errorf("%w: %v", ErrDllSearch, err)
	}
	return nil
}
