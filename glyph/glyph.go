// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package glyph defines the bitmap font interface used by the text renderer
// and adapters for the font formats found in the Go ecosystem.
//
// A Glyph is a 1 bit per pixel bitmap, row-major, each row padded to a whole
// byte, most significant bit first. Fonts are immutable once built and can be
// shared between devices.
package glyph

// Glyph is the bitmap of a single character.
type Glyph struct {
	// Bitmap holds Height rows of RowBytes() bytes.
	Bitmap []byte
	Width  int
	Height int
}

// RowBytes returns the number of bytes of a bitmap row.
func (g *Glyph) RowBytes() int {
	return (g.Width + 7) / 8
}

// Bit reports whether the pixel at (x, y) is set.
func (g *Glyph) Bit(x, y int) bool {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return false
	}
	b := g.Bitmap[y*g.RowBytes()+x/8]
	return b&(0x80>>uint(x%8)) != 0
}

// Font is a source of glyphs.
type Font interface {
	// Glyph returns the glyph for r. ok is false when the font has no glyph
	// for it.
	Glyph(r rune) (g Glyph, ok bool)
	// Height is the line height in pixels.
	Height() int
	// MaxWidth is the widest advance of the font in pixels.
	MaxWidth() int
}

// pack converts a predicate over a w×h cell into a row padded bitmap.
func pack(w, h int, set func(x, y int) bool) Glyph {
	g := Glyph{Width: w, Height: h}
	rb := g.RowBytes()
	g.Bitmap = make([]byte, rb*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if set(x, y) {
				g.Bitmap[y*rb+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return g
}
