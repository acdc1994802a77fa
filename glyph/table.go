// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

import (
	"fmt"
	"strings"
)

// Table is a Font backed by a map, for hand made fonts and icon sets.
type Table struct {
	Glyphs map[rune]Glyph
	// LineHeight is returned by Height. When 0 the tallest glyph is used.
	LineHeight int
}

// Glyph implements Font.
func (t *Table) Glyph(r rune) (Glyph, bool) {
	g, ok := t.Glyphs[r]
	return g, ok
}

// Height implements Font.
func (t *Table) Height() int {
	if t.LineHeight != 0 {
		return t.LineHeight
	}
	h := 0
	for _, g := range t.Glyphs {
		if g.Height > h {
			h = g.Height
		}
	}
	return h
}

// MaxWidth implements Font.
func (t *Table) MaxWidth() int {
	w := 0
	for _, g := range t.Glyphs {
		if g.Width > w {
			w = g.Width
		}
	}
	return w
}

// FromRows builds a glyph from an ASCII drawing, one string per row; '#'
// and 'X' are set pixels, anything else is clear. All rows must have the
// same length.
func FromRows(rows ...string) (Glyph, error) {
	if len(rows) == 0 {
		return Glyph{}, nil
	}
	w := len(rows[0])
	for i, r := range rows {
		if len(r) != w {
			return Glyph{}, fmt.Errorf("glyph: row %d is %d wide, want %d", i, len(r), w)
		}
	}
	return pack(w, len(rows), func(x, y int) bool {
		return strings.IndexByte("#X", rows[y][x]) >= 0
	}), nil
}

// MustFromRows is FromRows that panics on error. It is meant for package
// level font tables.
func MustFromRows(rows ...string) Glyph {
	g, err := FromRows(rows...)
	if err != nil {
		panic(err)
	}
	return g
}

var _ Font = &Table{}
