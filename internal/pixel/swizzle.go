// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package pixel

// ToStraight rewrites every pixel of an ARGB buffer into RGBA order in
// place. Buffers already in RGBA order are left alone.
func ToStraight(d OutDesc) error {
	if d.Format.Order() != OrderARGB {
		return nil
	}
	return rotate(d, true)
}

// FromStraight rewrites every pixel of d from RGBA into the format's native
// ARGB order in place. RGBA formats are left alone.
func FromStraight(d OutDesc) error {
	if d.Format.Order() != OrderARGB {
		return nil
	}
	return rotate(d, false)
}

// rotate moves the first channel of each pixel to the end (left) or the
// last channel to the front (right).
func rotate(d OutDesc, left bool) error {
	if err := d.Validate(); err != nil {
		return err
	}

	es := d.Format.ElemSize()
	bpp := d.Format.BytesPerPixel()

	return forBands(d.Height, func(from, to int) {
		var tmp [16]byte
		for y := from; y < to; y++ {
			row := d.Row(y)
			for x := 0; x+bpp <= len(row); x += bpp {
				px := row[x : x+bpp]
				if left {
					copy(tmp[:es], px[:es])
					copy(px, px[es:])
					copy(px[bpp-es:], tmp[:es])
				} else {
					copy(tmp[:es], px[bpp-es:])
					copy(px[es:], px[:bpp-es])
					copy(px[:es], tmp[:es])
				}
			}
		}
	})
}
