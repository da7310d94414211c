// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package footage moves pixels between image files and pixel buffers and
// names the frames of rendered sequences.
package footage

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mobile-bungalow/golobulus/internal/pixel"
)

// Load decodes a PNG or JPEG file into a buffer of format f.
func Load(path string, f pixel.Format) (*pixel.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	m, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return FromImage(m, f), nil
}

// FromImage converts m to straight (non-premultiplied) pixels of format f.
func FromImage(m image.Image, f pixel.Format) *pixel.Buffer {
	bounds := m.Bounds()
	buf := pixel.NewBuffer(f, pixel.Size{Width: bounds.Dx(), Height: bounds.Dy()})

	scale := f.White() / 0xffff
	bpp := f.BytesPerPixel()
	es := f.ElemSize()
	ch := f.Channels()

	for y := range buf.Height {
		row := y * buf.Width * bpp
		for x := range buf.Width {
			c := nrgba64At(m, bounds.Min.X+x, bounds.Min.Y+y)
			vals := [4]uint16{c.R, c.G, c.B, c.A}
			off := row + x*bpp
			for i, v := range vals {
				pixel.WriteChannel(buf.Data, off+ch[i]*es, f.Elem(), float64(v)*scale)
			}
		}
	}
	return buf
}

// nrgba64At reads non-premultiplied images directly so low alpha pixels keep
// their color.
func nrgba64At(m image.Image, x, y int) color.NRGBA64 {
	switch m := m.(type) {
	case *image.NRGBA:
		c := m.NRGBAAt(x, y)
		return color.NRGBA64{R: uint16(c.R) * 0x101, G: uint16(c.G) * 0x101, B: uint16(c.B) * 0x101, A: uint16(c.A) * 0x101}
	case *image.NRGBA64:
		return m.NRGBA64At(x, y)
	}
	return color.NRGBA64Model.Convert(m.At(x, y)).(color.NRGBA64)
}

// ToImage copies d into an image. 8-bit formats give *image.NRGBA, wider
// formats *image.NRGBA64; float values are clamped to [0, 1].
func ToImage(d pixel.InDesc) (image.Image, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	f := d.Format
	bpp := f.BytesPerPixel()
	es := f.ElemSize()
	ch := f.Channels()
	rect := image.Rect(0, 0, d.Width, d.Height)

	read := func(row []byte, x, c int) float64 {
		return pixel.ReadChannel(row, x*bpp+ch[c]*es, f.Elem()) / f.White()
	}

	if f.Elem() == pixel.Uint8 {
		m := image.NewNRGBA(rect)
		for y := range d.Height {
			row := d.Row(y)
			for x := range d.Width {
				var c [4]uint8
				for i := range c {
					c[i] = uint8(unit(read(row, x, i))*0xff + 0.5)
				}
				m.SetNRGBA(x, y, color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
			}
		}
		return m, nil
	}

	m := image.NewNRGBA64(rect)
	for y := range d.Height {
		row := d.Row(y)
		for x := range d.Width {
			var c [4]uint16
			for i := range c {
				c[i] = uint16(unit(read(row, x, i))*0xffff + 0.5)
			}
			m.SetNRGBA64(x, y, color.NRGBA64{R: c[0], G: c[1], B: c[2], A: c[3]})
		}
	}
	return m, nil
}

func unit(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return min(v, 1)
}

// Encode writes d to w as PNG.
func Encode(w io.Writer, d pixel.InDesc) error {
	m, err := ToImage(d)
	if err != nil {
		return err
	}
	return png.Encode(w, m)
}

// Save writes d to path as PNG.
func Save(path string, d pixel.InDesc) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := Encode(file, d); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

// FrameName returns the file name of frame in a sequence ending at last,
// zero padded so names sort in frame order.
func FrameName(frame, last int) string {
	return fmt.Sprintf("%0*d.png", len(strconv.Itoa(last)), frame)
}

// CreateSuffixedDir creates path, or path_1, path_2, ... if it exists, and
// returns the directory created.
func CreateSuffixedDir(path string) (string, error) {
	dir := path
	for suffix := 1; ; suffix++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		dir = fmt.Sprintf("%s_%d", path, suffix)
	}
}
