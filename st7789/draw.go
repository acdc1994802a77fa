// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"github.com/GermanBionicSystems/lcd/glyph"
	"github.com/GermanBionicSystems/lcd/rgb565"
	"github.com/GermanBionicSystems/lcd/shape"
	"github.com/GermanBionicSystems/lcd/textlayout"
)

// TextOpts controls DrawText. The zero value draws one unbounded line in the
// panel font.
type TextOpts struct {
	// Offset is added to x for every line.
	Offset int
	// Wrap breaks lines on '\n' and before the right edge of the panel.
	Wrap bool
	// MaxWidth truncates the text, 0 means unbounded.
	MaxWidth int
	// Slope shears the glyphs to fake italics, in pixels per row.
	Slope float64
	// Font overrides the panel font.
	Font glyph.Font
	// Target, when set, receives the pixels instead of the frame.
	Target textlayout.Canvas
}

// DrawText renders s in the frame with the top left corner of the first line
// at (x, y).
//
// It returns the width of the drawn glyphs and the line height. Runes
// missing from the font are skipped.
func (d *Dev) DrawText(s string, x, y int, c rgb565.Color, o *TextOpts) (width, height int) {
	if o == nil {
		o = &TextOpts{}
	}
	lo := textlayout.Opts{
		Font:      o.Font,
		Offset:    o.Offset,
		Wrap:      o.Wrap,
		MaxWidth:  o.MaxWidth,
		Slope:     o.Slope,
		WrapWidth: d.rect.Dx(),
	}
	if lo.Font == nil {
		lo.Font = d.font
	}
	var dst textlayout.Canvas = d.img
	if o.Target != nil {
		dst = o.Target
	}
	return textlayout.Draw(dst, s, x, y, c, &lo)
}

// MeasureText returns the width of s in f, or in the panel font when f is
// nil.
func (d *Dev) MeasureText(s string, f glyph.Font) int {
	if f == nil {
		f = d.font
	}
	return textlayout.Measure(f, s)
}

// Font returns the panel font.
func (d *Dev) Font() glyph.Font {
	return d.font
}

// Fill paints the whole frame.
func (d *Dev) Fill(c rgb565.Color) {
	d.img.Fill(c)
}

// RoundedRect fills a rectangle spanning (x, y) to (x+w, y+h) with corners of
// radius r.
func (d *Dev) RoundedRect(x, y, w, h, r int, c rgb565.Color) {
	shape.RoundedRect(d.img, x, y, w, h, r, c)
}

// Pill fills a rectangle with half circle ends and returns their radius.
func (d *Dev) Pill(x, y, w, h int, c rgb565.Color) int {
	return shape.Pill(d.img, x, y, w, h, c)
}

// Arc draws a circle arc of radius r around (x, y). See shape.Arc.
func (d *Dev) Arc(x, y, r int, start, sweep float64, c rgb565.Color, clockwise bool, stroke int) {
	shape.Arc(d.img, x, y, r, start, sweep, c, clockwise, stroke)
}
