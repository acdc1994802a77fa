// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package textlayout renders strings of bitmap glyphs into a pixel store.
//
// Text is drawn glyph by glyph from a pen position. Spaces advance the pen by
// half the font's widest advance and draw nothing. Runes the font has no
// glyph for are skipped. The renderer supports wrapping at the right edge of
// the canvas, truncation at a maximum width and a per-row horizontal shear
// that fakes italics from an upright font.
package textlayout

import (
	"image"
	"math"

	"github.com/GermanBionicSystems/lcd/glyph"
	"github.com/GermanBionicSystems/lcd/rgb565"
)

// Canvas is the pixel store text is drawn into. *rgb565.Image implements it.
//
// Writes outside the canvas must be ignored.
type Canvas interface {
	SetRGB565(x, y int, c rgb565.Color)
}

// Opts controls how a string is laid out. The zero value draws with the
// default font, no wrapping, no width limit and no shear.
type Opts struct {
	// Font is the glyph source. glyph.Default() when nil.
	Font glyph.Font
	// Offset is added to x to get the left margin of every line.
	Offset int
	// Wrap enables line breaks on '\n' and at the right edge.
	Wrap bool
	// MaxWidth stops drawing once the text and one line height of margin
	// would not fit. 0 means unbounded.
	MaxWidth int
	// Slope is the horizontal shear in pixels per row. Positive values lean
	// right, negative values lean left.
	Slope float64
	// WrapWidth is the x coordinate of the right edge used for wrapping. When
	// 0 and the canvas has a Bounds method, its right edge is used.
	WrapWidth int
}

// Draw renders s at (x, y), the top left corner of the first line.
//
// It returns the accumulated advance of the drawn glyphs, spaces excluded,
// and the font line height.
func Draw(dst Canvas, s string, x, y int, c rgb565.Color, o *Opts) (width, height int) {
	if o == nil {
		o = &Opts{}
	}
	f := o.Font
	if f == nil {
		f = glyph.Default()
	}
	lh := f.Height()
	space := f.MaxWidth() / 2
	edge := o.WrapWidth
	if edge == 0 {
		if b, ok := dst.(interface{ Bounds() image.Rectangle }); ok {
			edge = b.Bounds().Max.X
		}
	}
	wrapAt := edge - lh

	originX := x + o.Offset
	curX, curY := originX, y
	total := 0
	for _, r := range s {
		if r == ' ' {
			curX += space
			continue
		}
		if r == '\n' && o.Wrap {
			curX = originX
			curY += lh
			continue
		}
		g, ok := f.Glyph(r)
		if !ok {
			continue
		}
		adv := g.Width + int(o.Slope)
		if o.MaxWidth > 0 && total+adv > o.MaxWidth {
			return total, lh
		}
		if o.Wrap && edge > 0 && curX >= wrapAt && curX != originX {
			// Spaces moved the pen past the edge.
			curX = originX
			curY += lh
		}
		drawGlyph(dst, &g, curX, curY, c, o.Slope)
		curX += adv
		total += adv
		if o.MaxWidth > 0 && total+lh > o.MaxWidth {
			return total, lh
		}
		if o.Wrap && edge > 0 && curX >= wrapAt {
			curX = originX
			curY += lh
		}
	}
	return total, lh
}

// drawGlyph plots the set bits of g with its top left corner at (x, y).
//
// With a non zero slope each row is shifted horizontally. The shift starts at
// int(h*slope)-1 on the top row for a positive slope (0 otherwise) and moves
// by one pixel every time the per-row accumulation of slope reaches a whole
// pixel.
func drawGlyph(dst Canvas, g *glyph.Glyph, x, y int, c rgb565.Color, slope float64) {
	off := 0
	if slope > 0 {
		off = int(float64(g.Height)*slope) - 1
	}
	acc := 0.0
	rb := g.RowBytes()
	for ny := 0; ny < g.Height; ny++ {
		acc += slope
		row := g.Bitmap[ny*rb : (ny+1)*rb]
		for nx := 0; nx < g.Width; nx++ {
			if row[nx/8]&(0x80>>uint(nx%8)) != 0 {
				dst.SetRGB565(x+nx+off, y+ny, c)
			}
		}
		if math.Abs(acc) >= 1 {
			n := math.Trunc(acc)
			off -= int(n)
			acc -= n
		}
	}
}

// Measure returns the width s would take when drawn upright on a single line
// with f, spaces included. f defaults to glyph.Default() when nil.
//
// Slanted text advances further; use MeasureSlope for it.
func Measure(f glyph.Font, s string) int {
	return MeasureSlope(f, s, 0)
}

// MeasureSlope is Measure for text drawn with Opts.Slope set to slope: each
// glyph advances by int(slope) more pixels, as in Draw.
func MeasureSlope(f glyph.Font, s string, slope float64) int {
	if f == nil {
		f = glyph.Default()
	}
	extra := int(slope)
	w := 0
	for _, r := range s {
		if r == ' ' {
			w += f.MaxWidth() / 2
			continue
		}
		if g, ok := f.Glyph(r); ok {
			w += g.Width + extra
		}
	}
	return w
}
