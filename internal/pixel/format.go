// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package pixel describes borrowed image memory handed to the runner by a host:
// formats, descriptors, owned proxy buffers, and the stride-aware copy
// routines (blit, swizzle) that move pixels between them.
package pixel

import (
	"fmt"
	"strings"
)

// Format is a supported pixel layout. Every pixel has four channels; the
// element type and channel order are looked up in the format table.
type Format int

const (
	Rgba8 Format = iota
	Argb8
	// Argb16ae is the host's 16-bit layout, white is 32768 rather than 65535.
	Argb16ae
	Rgba16
	Argb32
	Rgba32
)

// Elem is the scalar type of a single channel.
type Elem int

const (
	Uint8 Elem = iota
	Uint16
	Float32
)

// Order is the in-memory channel order of a pixel.
type Order int

const (
	OrderRGBA Order = iota
	OrderARGB
)

type formatInfo struct {
	name     string
	elem     Elem
	elemSize int
	order    Order
	white    float64
	straight Format
}

var formats = [...]formatInfo{
	Rgba8:    {name: "rgba8", elem: Uint8, elemSize: 1, order: OrderRGBA, white: 255, straight: Rgba8},
	Argb8:    {name: "argb8", elem: Uint8, elemSize: 1, order: OrderARGB, white: 255, straight: Rgba8},
	Argb16ae: {name: "argb16ae", elem: Uint16, elemSize: 2, order: OrderARGB, white: 32768, straight: Rgba16},
	Rgba16:   {name: "rgba16", elem: Uint16, elemSize: 2, order: OrderRGBA, white: 65535, straight: Rgba16},
	Argb32:   {name: "argb32", elem: Float32, elemSize: 4, order: OrderARGB, white: 1, straight: Rgba32},
	Rgba32:   {name: "rgba32", elem: Float32, elemSize: 4, order: OrderRGBA, white: 1, straight: Rgba32},
}

// rgbaFromARGB maps a logical RGBA channel to its raw ARGB position.
var rgbaFromARGB = [4]int{1, 2, 3, 0}

// identityChannels is the channel map of a format already in RGBA order.
var identityChannels = [4]int{0, 1, 2, 3}

func (f Format) info() formatInfo {
	if f < 0 || int(f) >= len(formats) {
		panic(fmt.Sprintf("pixel: unknown format %d", int(f)))
	}
	return formats[f]
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f >= 0 && int(f) < len(formats)
}

// Elem returns the channel scalar type.
func (f Format) Elem() Elem { return f.info().elem }

// ElemSize returns the size of one channel in bytes.
func (f Format) ElemSize() int { return f.info().elemSize }

// BytesPerPixel returns the size of one four-channel pixel in bytes.
func (f Format) BytesPerPixel() int { return 4 * f.info().elemSize }

// Order returns the in-memory channel order.
func (f Format) Order() Order { return f.info().order }

// White returns the channel value that represents full intensity.
func (f Format) White() float64 { return f.info().white }

// Straight returns the RGBA format with the same element type.
func (f Format) Straight() Format { return f.info().straight }

// Channels returns, for each logical RGBA channel, the raw channel index it
// is stored at. RGBA formats map to themselves.
func (f Format) Channels() [4]int {
	if f.Order() == OrderARGB {
		return rgbaFromARGB
	}
	return identityChannels
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return f.info().name
}

// ParseFormat returns the format with the given name (case insensitive).
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, info := range formats {
		if info.name == name {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pixel format %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown pixel format %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
