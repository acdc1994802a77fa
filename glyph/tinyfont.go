// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"image/color"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// tinyFont adapts a tinyfont.Fonter. Glyphs are captured by letting tinyfont
// draw them into a scratch drivers.Displayer.
type tinyFont struct {
	f      tinyfont.Fonter
	runes  map[rune]bool
	ascent int
	height int
	maxW   int

	mu    sync.Mutex
	cache map[rune]cached
}

// FromTinyfont returns a Font backed by a tinyfont font, for example
// &freemono.Regular9pt7b.
//
// The line height is the font's YAdvance. The baseline is placed at the
// highest ascent of the printable ASCII glyphs.
func FromTinyfont(f tinyfont.Fonter) Font {
	t := &tinyFont{
		f:      f,
		height: int(f.GetYAdvance()),
		cache:  map[rune]cached{},
	}
	if tf, ok := f.(*tinyfont.Font); ok {
		// GetGlyph substitutes a glyph for unknown runes; check the table.
		t.runes = make(map[rune]bool, len(tf.Glyphs))
		for i := range tf.Glyphs {
			t.runes[tf.Glyphs[i].Rune] = true
		}
	}
	for r := rune(0x21); r < 0x7F; r++ {
		info := f.GetGlyph(r).Info()
		if info.Rune != r {
			continue
		}
		if a := -int(info.YOffset); a > t.ascent {
			t.ascent = a
		}
		if w := int(info.XAdvance); w > t.maxW {
			t.maxW = w
		}
	}
	if t.ascent > t.height {
		t.height = t.ascent
	}
	return t
}

// Glyph implements Font.
func (t *tinyFont) Glyph(r rune) (Glyph, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.cache[r]
	if !ok {
		c.g, c.ok = t.render(r)
		t.cache[r] = c
	}
	return c.g, c.ok
}

func (t *tinyFont) render(r rune) (Glyph, bool) {
	if t.runes != nil && !t.runes[r] {
		return Glyph{}, false
	}
	g := t.f.GetGlyph(r)
	info := g.Info()
	if info.Rune != r || info.XAdvance == 0 {
		return Glyph{}, false
	}
	c := &capture{w: int(info.XAdvance), h: t.height}
	c.bits = make([]bool, c.w*c.h)
	g.Draw(c, 0, int16(t.ascent), color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	return pack(c.w, c.h, func(x, y int) bool {
		return c.bits[y*c.w+x]
	}), true
}

// Height implements Font.
func (t *tinyFont) Height() int {
	return t.height
}

// MaxWidth implements Font.
func (t *tinyFont) MaxWidth() int {
	return t.maxW
}

// capture records which pixels of a w×h cell were set.
type capture struct {
	w, h int
	bits []bool
}

func (c *capture) Size() (x, y int16) {
	return int16(c.w), int16(c.h)
}

func (c *capture) SetPixel(x, y int16, _ color.RGBA) {
	if x < 0 || y < 0 || int(x) >= c.w || int(y) >= c.h {
		return
	}
	c.bits[int(y)*c.w+int(x)] = true
}

func (c *capture) Display() error {
	return nil
}

var _ drivers.Displayer = &capture{}
