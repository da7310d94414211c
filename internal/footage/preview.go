// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package footage

import (
	"encoding/base64"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/mobile-bungalow/golobulus/internal/pixel"
)

// CanPreview reports whether f is an iTerm2 terminal that can show inline
// images.
func CanPreview(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) && os.Getenv("TERM_PROGRAM") == "iTerm.app"
}

// Preview writes d to w as an inline iTerm2 image.
func Preview(w io.Writer, d pixel.InDesc) error {
	if _, err := io.WriteString(w, "\x1b]1337;File=inline=1:"); err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, w)
	if err := Encode(enc, d); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\x07\n")
	return err
}
