// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview implements a display.Drawer that outputs panel frames to
// the terminal using ANSI 256 color codes.
//
// Useful to preview a screen layout without the LCD wired up. Each terminal
// cell shows one pixel every Scale pixels in both directions.
package termview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/lcd/rgb565"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	// W and H are the size of the mirrored panel in pixels.
	W, H int
	// Scale is the downsampling factor, 1 when 0.
	Scale   int
	Palette *ansi256.Palette
	// Out defaults to a colorable stdout.
	Out io.Writer

	_ struct{}
}

// Dev renders frames at the console.
type Dev struct {
	w       io.Writer
	rect    image.Rectangle
	scale   int
	cols    int
	rows    int
	palette ansi256.Palette

	frame *rgb565.Image
	cells []byte
	buf   bytes.Buffer
	drawn bool
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	s := opts.Scale
	if s < 1 {
		s = 1
	}
	cols := (opts.W + s - 1) / s
	rows := (opts.H + s - 1) / s
	r := image.Rect(0, 0, opts.W, opts.H)
	return &Dev{
		w:       w,
		rect:    r,
		scale:   s,
		cols:    cols,
		rows:    rows,
		palette: *p,
		frame:   rgb565.New(r),
		cells:   make([]byte, 3*cols*rows),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermView{%dx%d/%d}", d.rect.Dx(), d.rect.Dy(), d.scale)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the shell prompt is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Write accepts a stream of big endian RGB565 pixels, as sent to the panel,
// and writes it to the console.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != len(d.frame.Pix) {
		return 0, errors.New("termview: invalid RGB565 stream length")
	}
	copy(d.frame.Pix, pixels)
	d.sample()
	if err := d.refresh(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if img, ok := src.(*rgb565.Image); ok && r == d.rect && img.Rect == d.rect && sp == (image.Point{}) {
		copy(d.frame.Pix, img.Pix)
	} else {
		r = r.Intersect(d.rect)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				d.frame.Set(x, y, src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y))
			}
		}
	}
	d.sample()
	return d.refresh()
}

// sample picks the top left pixel of each scale x scale block.
func (d *Dev) sample() {
	i := 0
	for y := 0; y < d.rows; y++ {
		for x := 0; x < d.cols; x++ {
			r, g, b, _ := d.frame.RGB565At(x*d.scale, y*d.scale).RGBA()
			d.cells[i] = byte(r >> 8)
			d.cells[i+1] = byte(g >> 8)
			d.cells[i+2] = byte(b >> 8)
			i += 3
		}
	}
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	if d.drawn && d.rows > 0 {
		// Go back to the top left corner of the previous frame.
		fmt.Fprintf(&d.buf, "\033[%dA", d.rows)
	}
	for y := 0; y < d.rows; y++ {
		_, _ = d.buf.WriteString("\r\033[0m")
		for x := 0; x < d.cols; x++ {
			i := 3 * (y*d.cols + x)
			c := color.NRGBA{d.cells[i], d.cells[i+1], d.cells[i+2], 255}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
