// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package pixel

import (
	"bytes"
	"errors"
	"testing"
)

func TestFormatTable(t *testing.T) {
	tests := []struct {
		format   Format
		bpp      int
		order    Order
		straight Format
		white    float64
	}{
		{Rgba8, 4, OrderRGBA, Rgba8, 255},
		{Argb8, 4, OrderARGB, Rgba8, 255},
		{Argb16ae, 8, OrderARGB, Rgba16, 32768},
		{Rgba16, 8, OrderRGBA, Rgba16, 65535},
		{Argb32, 16, OrderARGB, Rgba32, 1},
		{Rgba32, 16, OrderRGBA, Rgba32, 1},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.BytesPerPixel(); got != tt.bpp {
				t.Errorf("BytesPerPixel() = %d, want %d", got, tt.bpp)
			}
			if got := tt.format.Order(); got != tt.order {
				t.Errorf("Order() = %v, want %v", got, tt.order)
			}
			if got := tt.format.Straight(); got != tt.straight {
				t.Errorf("Straight() = %v, want %v", got, tt.straight)
			}
			if got := tt.format.White(); got != tt.white {
				t.Errorf("White() = %v, want %v", got, tt.white)
			}
			parsed, err := ParseFormat(tt.format.String())
			if err != nil || parsed != tt.format {
				t.Errorf("ParseFormat(%q) = %v, %v", tt.format.String(), parsed, err)
			}
		})
	}

	if _, err := ParseFormat("bgra8"); err == nil {
		t.Error("ParseFormat(bgra8) should fail")
	}
}

func TestAllocBufferLimits(t *testing.T) {
	tests := []struct {
		name    string
		size    Size
		wantErr error
	}{
		{"small", Size{Width: 3, Height: 2}, nil},
		{"at the limit", Size{Width: MaxDimension, Height: 1}, nil},
		{"zero", Size{Width: 0, Height: 4}, ErrZeroDimension},
		{"too wide", Size{Width: MaxDimension + 1, Height: 1}, ErrTooLarge},
		{"overflowing", Size{Width: 4e18, Height: 4e18}, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := AllocBuffer(Rgba32, tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AllocBuffer() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && len(b.Data) != tt.size.Width*tt.size.Height*16 {
				t.Errorf("len(Data) = %d", len(b.Data))
			}
		})
	}
	if _, err := AllocBuffer(Format(99), Size{Width: 1, Height: 1}); err == nil {
		t.Error("AllocBuffer() accepted an unknown format")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		desc    OutDesc
		wantErr error
	}{
		{
			name: "packed",
			desc: OutDesc{Format: Rgba8, Width: 2, Height: 3, Data: make([]byte, 24)},
		},
		{
			name: "strided",
			desc: OutDesc{Format: Rgba16, Width: 2, Height: 3, Stride: 32, Data: make([]byte, 96)},
		},
		{
			name:    "zero width",
			desc:    OutDesc{Format: Rgba8, Width: 0, Height: 3, Data: nil},
			wantErr: ErrZeroDimension,
		},
		{
			name:    "zero height",
			desc:    OutDesc{Format: Rgba8, Width: 3, Height: 0, Data: nil},
			wantErr: ErrZeroDimension,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	desc := OutDesc{Format: Rgba32, Width: 4, Height: 4, Data: make([]byte, 10)}
	var mismatch *SizeMismatchError
	if err := desc.Validate(); !errors.As(err, &mismatch) {
		t.Fatalf("Validate() = %v, want SizeMismatchError", err)
	}
	if mismatch.Expected != 256 || mismatch.Found != 10 {
		t.Errorf("mismatch = %+v, want expected 256 found 10", mismatch)
	}
}

// pattern fills a packed buffer with a value unique to each byte position.
func pattern(f Format, w, h int) *Buffer {
	b := NewBuffer(f, Size{Width: w, Height: h})
	for i := range b.Data {
		b.Data[i] = byte(i%251 + 1)
	}
	return b
}

func TestBlitCentering(t *testing.T) {
	src := NewBuffer(Rgba8, Size{Width: 2, Height: 2})
	for i := range src.Data {
		src.Data[i] = 9
	}

	dst := NewBuffer(Rgba8, Size{Width: 4, Height: 4})
	if err := Blit(dst.OutDesc(), src.InDesc()); err != nil {
		t.Fatalf("Blit() error: %v", err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := byte(0)
			if y >= 1 && y <= 2 && x >= 1 && x <= 2 {
				want = 9
			}
			if got := dst.Data[(y*4+x)*4]; got != want {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestBlitCropsCenterOfLargerSource(t *testing.T) {
	src := pattern(Rgba8, 6, 6)
	dst := NewBuffer(Rgba8, Size{Width: 2, Height: 2})
	if err := Blit(dst.OutDesc(), src.InDesc()); err != nil {
		t.Fatalf("Blit() error: %v", err)
	}

	for y := 0; y < 2; y++ {
		want := src.InDesc().Row(y + 2)[2*4 : 4*4]
		if got := dst.OutDesc().Row(y); !bytes.Equal(got, want) {
			t.Errorf("row %d = %v, want %v", y, got, want)
		}
	}
}

// TestBlitStrideAgnostic verifies that a packed destination and a strided
// sub-region of a larger canvas receive identical rows.
func TestBlitStrideAgnostic(t *testing.T) {
	formats := []Format{Rgba8, Rgba16, Rgba32}
	sizes := []Size{{Width: 3, Height: 5}, {Width: 8, Height: 8}, {Width: 13, Height: 11}}
	const outW, outH = 8, 8

	for _, f := range formats {
		for _, s := range sizes {
			t.Run(f.String()+"/"+s.String(), func(t *testing.T) {
				src := pattern(f, s.Width, s.Height)

				packed := NewBuffer(f, Size{Width: outW, Height: outH})
				if err := Blit(packed.OutDesc(), src.InDesc()); err != nil {
					t.Fatalf("packed Blit() error: %v", err)
				}

				bpp := f.BytesPerPixel()
				canvasStride := (outW + 5) * bpp
				canvas := make([]byte, canvasStride*(outH+3))
				offset := 2*canvasStride + 3*bpp
				strided := OutDesc{
					Format: f,
					Width:  outW,
					Height: outH,
					Stride: canvasStride,
					Data:   canvas[offset : offset+canvasStride*outH],
				}
				if err := Blit(strided, src.InDesc()); err != nil {
					t.Fatalf("strided Blit() error: %v", err)
				}

				for y := 0; y < outH; y++ {
					if !bytes.Equal(packed.OutDesc().Row(y), strided.Row(y)) {
						t.Fatalf("row %d differs between packed and strided destinations", y)
					}
				}
			})
		}
	}
}

func TestBlitFormatMismatch(t *testing.T) {
	src := NewBuffer(Rgba8, Size{Width: 1, Height: 1})
	dst := NewBuffer(Rgba16, Size{Width: 1, Height: 1})
	if err := Blit(dst.OutDesc(), src.InDesc()); err == nil {
		t.Error("Blit() across formats should fail")
	}
}

func TestSwizzleRoundTrip(t *testing.T) {
	for _, f := range []Format{Argb8, Argb16ae, Argb32} {
		t.Run(f.String(), func(t *testing.T) {
			b := pattern(f, 5, 3)
			original := append([]byte(nil), b.Data...)

			if err := ToStraight(b.OutDesc()); err != nil {
				t.Fatalf("ToStraight() error: %v", err)
			}

			es := f.ElemSize()
			// logical red now leads the pixel; it was stored second
			if !bytes.Equal(b.Data[:es], original[es:2*es]) {
				t.Errorf("first channel after ToStraight = %v, want %v", b.Data[:es], original[es:2*es])
			}

			if err := FromStraight(b.OutDesc()); err != nil {
				t.Fatalf("FromStraight() error: %v", err)
			}
			if !bytes.Equal(b.Data, original) {
				t.Error("swizzle round trip changed the buffer")
			}
		})
	}
}

func TestSwizzleIgnoresStraightFormats(t *testing.T) {
	b := pattern(Rgba8, 2, 2)
	original := append([]byte(nil), b.Data...)
	if err := FromStraight(b.OutDesc()); err != nil {
		t.Fatalf("FromStraight() error: %v", err)
	}
	if !bytes.Equal(b.Data, original) {
		t.Error("FromStraight modified an RGBA buffer")
	}
}

func TestChannelRoundTrip(t *testing.T) {
	data := make([]byte, 4)
	tests := []struct {
		elem Elem
		in   float64
		want float64
	}{
		{Uint8, 128, 128},
		{Uint8, 300, 255},
		{Uint8, -4, 0},
		{Uint8, 12.6, 13},
		{Uint8, 12.4, 12},
		{Uint8, 254.7, 255},
		{Uint16, 40000, 40000},
		{Uint16, 70000, 65535},
		{Uint16, 12.5, 13},
		{Float32, 0.5, 0.5},
		{Float32, -2, -2},
	}
	for _, tt := range tests {
		WriteChannel(data, 0, tt.elem, tt.in)
		if got := ReadChannel(data, 0, tt.elem); got != tt.want {
			t.Errorf("elem %d: wrote %v, read %v, want %v", tt.elem, tt.in, got, tt.want)
		}
	}
}

func TestContiguous(t *testing.T) {
	packed := NewBuffer(Rgba8, Size{Width: 2, Height: 2}).InDesc()
	if _, err := packed.Contiguous(); err != nil {
		t.Errorf("Contiguous() on packed = %v", err)
	}

	strided := InDesc{Format: Rgba8, Width: 2, Height: 2, Stride: 12, Data: make([]byte, 24)}
	if _, err := strided.Contiguous(); !errors.Is(err, ErrNoncontiguous) {
		t.Errorf("Contiguous() on strided = %v, want ErrNoncontiguous", err)
	}
}
