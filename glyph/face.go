// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

type cached struct {
	g  Glyph
	ok bool
}

// faceFont rasterizes a font.Face into 1 bit glyphs on demand.
//
// Every glyph covers the full line: it is Height() tall with the baseline at
// the font ascent, so glyphs of different shapes line up when drawn at the
// same y.
type faceFont struct {
	face   font.Face
	has    func(r rune) bool
	ascent int
	height int
	maxW   int

	mu    sync.Mutex
	cache map[rune]cached
}

// FromFace returns a Font rendering glyphs from f.
//
// Pixels with at least 50% coverage are set. Faces that substitute a
// replacement glyph for unknown runes (basicfont) are checked against their
// ranges so that unknown runes are reported as missing.
func FromFace(f font.Face) Font {
	ff := newFaceFont(f)
	if b, ok := f.(*basicfont.Face); ok {
		ff.has = func(r rune) bool {
			for _, rng := range b.Ranges {
				if rng.Low <= r && r < rng.High {
					return true
				}
			}
			return false
		}
	}
	return ff
}

func newFaceFont(f font.Face) *faceFont {
	m := f.Metrics()
	ff := &faceFont{
		face:   f,
		ascent: m.Ascent.Ceil(),
		height: m.Height.Ceil(),
		cache:  map[rune]cached{},
	}
	if cell := (m.Ascent + m.Descent).Ceil(); cell > ff.height {
		ff.height = cell
	}
	for r := rune(0x21); r < 0x7F; r++ {
		if adv, ok := f.GlyphAdvance(r); ok {
			if w := adv.Round(); w > ff.maxW {
				ff.maxW = w
			}
		}
	}
	return ff
}

// ParseTTF parses a TrueType font and returns it rendered at size points
// (72 DPI, so points are pixels).
func ParseTTF(data []byte, size float64) (Font, error) {
	if size <= 0 {
		return nil, fmt.Errorf("glyph: invalid font size %g", size)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: failed to parse TrueType font: %w", err)
	}
	ff := newFaceFont(truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}))
	ff.has = func(r rune) bool {
		return f.Index(r) != 0
	}
	return ff, nil
}

// GoRegular returns the Go Regular font at size points.
func GoRegular(size float64) (Font, error) {
	return ParseTTF(goregular.TTF, size)
}

var (
	defaultOnce sync.Once
	defaultFont Font
)

// Default returns the 7x13 fixed font from golang.org/x/image/font/basicfont.
func Default() Font {
	defaultOnce.Do(func() {
		defaultFont = FromFace(basicfont.Face7x13)
	})
	return defaultFont
}

// Glyph implements Font.
func (f *faceFont) Glyph(r rune) (Glyph, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cache[r]
	if !ok {
		c.g, c.ok = f.render(r)
		f.cache[r] = c
	}
	return c.g, c.ok
}

func (f *faceFont) render(r rune) (Glyph, bool) {
	if f.has != nil && !f.has(r) {
		return Glyph{}, false
	}
	dr, mask, mp, adv, ok := f.face.Glyph(fixed.P(0, f.ascent), r)
	if !ok {
		return Glyph{}, false
	}
	w := adv.Round()
	if w <= 0 {
		return Glyph{}, false
	}
	cell := image.NewAlpha(image.Rect(0, 0, w, f.height))
	draw.DrawMask(cell, dr, image.Opaque, image.Point{}, mask, mp, draw.Over)
	return pack(w, f.height, func(x, y int) bool {
		return cell.AlphaAt(x, y).A >= 0x80
	}), true
}

// Height implements Font.
func (f *faceFont) Height() int {
	return f.height
}

// MaxWidth implements Font.
func (f *faceFont) MaxWidth() int {
	return f.maxW
}
