// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package pixel

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minRowsPerBand keeps tiny images from fanning out into one goroutine per row.
const minRowsPerBand = 16

// Blit copies src into dst, centering the smaller image inside the larger
// one on both axes. When src is larger than dst the center of src is kept.
// Pixels of dst outside the overlap are not written; callers that need a
// clean margin zero dst first. Rows are copied in parallel bands and only
// row payloads are touched, so the result does not depend on dst's stride.
func Blit(dst OutDesc, src InDesc) error {
	if dst.Format != src.Format {
		return fmt.Errorf("cannot blit %s pixels into a %s buffer", src.Format, dst.Format)
	}
	if err := src.Validate(); err != nil {
		return fmt.Errorf("blit source: %w", err)
	}
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("blit destination: %w", err)
	}

	bpp := dst.Format.BytesPerPixel()
	rows := min(src.Height, dst.Height)
	cols := min(src.Width, dst.Width)

	dstY := max(dst.Height-src.Height, 0) / 2
	srcY := max(src.Height-dst.Height, 0) / 2
	dstX := (max(dst.Width-src.Width, 0) / 2) * bpp
	srcX := (max(src.Width-dst.Width, 0) / 2) * bpp
	span := cols * bpp

	return forBands(rows, func(from, to int) {
		for y := from; y < to; y++ {
			out := dst.Row(dstY + y)
			in := src.Row(srcY + y)
			copy(out[dstX:dstX+span], in[srcX:srcX+span])
		}
	})
}

// Contiguous returns the descriptor's memory when rows are tightly packed.
func (d InDesc) Contiguous() ([]byte, error) {
	if d.RowStride() != d.Width*d.Format.BytesPerPixel() {
		return nil, ErrNoncontiguous
	}
	return d.Data, nil
}

// forBands splits [0, rows) into bands and runs fn over them concurrently.
func forBands(rows int, fn func(from, to int)) error {
	if rows <= 0 {
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	band := max((rows+workers-1)/workers, minRowsPerBand)

	var g errgroup.Group
	g.SetLimit(workers)
	for from := 0; from < rows; from += band {
		to := min(from+band, rows)
		g.Go(func() error {
			fn(from, to)
			return nil
		})
	}
	return g.Wait()
}
