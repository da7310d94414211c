// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package pixel

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Buffer is an owned, tightly packed image. Proxy outputs and decoded
// footage are stored in Buffers.
type Buffer struct {
	Format Format
	Width  int
	Height int
	Data   []byte
}

// NewBuffer allocates a zeroed buffer of the given format and size.
func NewBuffer(f Format, size Size) *Buffer {
	return &Buffer{
		Format: f,
		Width:  size.Width,
		Height: size.Height,
		Data:   make([]byte, size.Width*size.Height*f.BytesPerPixel()),
	}
}

// AllocBuffer is NewBuffer for sizes that come from scripts or files. It
// fails instead of allocating when size does not pass Size.Check.
func AllocBuffer(f Format, size Size) (*Buffer, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid pixel format %v", f)
	}
	if err := size.Check(); err != nil {
		return nil, err
	}
	return NewBuffer(f, size), nil
}

// Size returns the image dimensions.
func (b *Buffer) Size() Size { return Size{Width: b.Width, Height: b.Height} }

// OutDesc returns a mutable descriptor over the buffer.
func (b *Buffer) OutDesc() OutDesc {
	return OutDesc{Format: b.Format, Width: b.Width, Height: b.Height, Data: b.Data}
}

// InDesc returns a read-only descriptor over the buffer.
func (b *Buffer) InDesc() InDesc {
	return InDesc{Format: b.Format, Width: b.Width, Height: b.Height, Data: b.Data}
}

// ReadChannel decodes one channel value of type e stored at data[off:].
// Values are returned in the element's native range.
func ReadChannel(data []byte, off int, e Elem) float64 {
	switch e {
	case Uint8:
		return float64(data[off])
	case Uint16:
		return float64(binary.NativeEndian.Uint16(data[off:]))
	default:
		return float64(math.Float32frombits(binary.NativeEndian.Uint32(data[off:])))
	}
}

// WriteChannel encodes v as type e at data[off:]. Integer elements are
// rounded to the nearest level and clamped to their range.
func WriteChannel(data []byte, off int, e Elem, v float64) {
	switch e {
	case Uint8:
		data[off] = uint8(clamp(math.Round(v), 0, math.MaxUint8))
	case Uint16:
		binary.NativeEndian.PutUint16(data[off:], uint16(clamp(math.Round(v), 0, math.MaxUint16)))
	default:
		binary.NativeEndian.PutUint32(data[off:], math.Float32bits(float32(v)))
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
