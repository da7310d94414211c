// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package pixel

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroDimension indicates a descriptor with zero width or height
	ErrZeroDimension = errors.New("buffer passed with 0 height or width")

	// ErrNoncontiguous indicates pixel memory that is not one packed block
	ErrNoncontiguous = errors.New("pixel memory is not contiguous")

	// ErrTooLarge indicates a size beyond MaxDimension on either side
	ErrTooLarge = errors.New("image dimensions too large")
)

// MaxDimension is the largest width or height a Buffer is allocated with.
const MaxDimension = 1 << 14

// SizeMismatchError reports a descriptor whose data length disagrees with
// its dimensions and stride.
type SizeMismatchError struct {
	Expected int
	Found    int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("invalid buffer size (expected %d, found %d)", e.Expected, e.Found)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Empty reports whether either dimension is zero.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Check returns ErrZeroDimension or ErrTooLarge for sizes no buffer can be
// allocated at.
func (s Size) Check() error {
	if s.Empty() {
		return ErrZeroDimension
	}
	if s.Width > MaxDimension || s.Height > MaxDimension {
		return fmt.Errorf("%w: %s exceeds %dx%d", ErrTooLarge, s, MaxDimension, MaxDimension)
	}
	return nil
}

// Fits reports whether s fits inside other in both dimensions.
func (s Size) Fits(other Size) bool {
	return s.Width <= other.Width && s.Height <= other.Height
}

// InDesc is a read-only view over host image memory. Stride is the row
// pitch in bytes; zero means rows are tightly packed.
type InDesc struct {
	Format Format
	Width  int
	Height int
	Stride int
	Data   []byte
}

// OutDesc is a mutable view over host image memory. Stride is the row
// pitch in bytes; zero means rows are tightly packed.
type OutDesc struct {
	Format Format
	Width  int
	Height int
	Stride int
	Data   []byte
}

// RowStride returns the byte distance between the starts of two rows.
func (d InDesc) RowStride() int { return rowStride(d.Format, d.Width, d.Stride) }

// Size returns the image dimensions.
func (d InDesc) Size() Size { return Size{Width: d.Width, Height: d.Height} }

// Validate checks dimensions and data length.
func (d InDesc) Validate() error {
	return validate(d.Format, d.Width, d.Height, d.Stride, len(d.Data))
}

// RowStride returns the byte distance between the starts of two rows.
func (d OutDesc) RowStride() int { return rowStride(d.Format, d.Width, d.Stride) }

// Size returns the image dimensions.
func (d OutDesc) Size() Size { return Size{Width: d.Width, Height: d.Height} }

// Validate checks dimensions and data length.
func (d OutDesc) Validate() error {
	return validate(d.Format, d.Width, d.Height, d.Stride, len(d.Data))
}

// ReadOnly returns an input descriptor over the same memory.
func (d OutDesc) ReadOnly() InDesc {
	return InDesc(d)
}

// Row returns the pixel payload of row y, excluding stride padding.
func (d OutDesc) Row(y int) []byte {
	start := y * d.RowStride()
	return d.Data[start : start+d.Width*d.Format.BytesPerPixel()]
}

// Row returns the pixel payload of row y, excluding stride padding.
func (d InDesc) Row(y int) []byte {
	start := y * d.RowStride()
	return d.Data[start : start+d.Width*d.Format.BytesPerPixel()]
}

// Packed reports whether rows are stored without padding.
func (d OutDesc) Packed() bool {
	return d.RowStride() == d.Width*d.Format.BytesPerPixel()
}

// Zero clears the pixel payload of every row. Stride padding belongs to
// the host and is left untouched.
func (d OutDesc) Zero() {
	for y := 0; y < d.Height; y++ {
		clear(d.Row(y))
	}
}

func rowStride(f Format, width, stride int) int {
	if stride > 0 {
		return stride
	}
	return width * f.BytesPerPixel()
}

func validate(f Format, width, height, stride, length int) error {
	if !f.Valid() {
		return fmt.Errorf("unknown pixel format %d", int(f))
	}
	if width <= 0 || height <= 0 {
		return ErrZeroDimension
	}
	if stride > 0 && stride < width*f.BytesPerPixel() {
		return fmt.Errorf("row stride %d is smaller than a row of %d pixels", stride, width)
	}
	expected := rowStride(f, width, stride) * height
	if length != expected {
		return &SizeMismatchError{Expected: expected, Found: length}
	}
	return nil
}
