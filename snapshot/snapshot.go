// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package snapshot saves panel frames as PNG files, enlarged and optionally
// overlaid with a pixel grid, for documentation and visual regression checks.
package snapshot

import (
	"errors"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Opts controls the rendering.
type Opts struct {
	// Scale enlarges each pixel to a Scale x Scale square, 1 when 0.
	Scale int
	// Grid draws a line between pixels. Ignored when Scale < 4.
	Grid bool
	// Caption is written in a band below the frame when not empty.
	Caption string
}

const captionHeight = 16

var gridColor = color.NRGBA{0x40, 0x40, 0x40, 0xFF}

// Render returns the decorated frame.
func Render(img image.Image, opts *Opts) (image.Image, error) {
	dc, err := render(img, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func render(img image.Image, opts *Opts) (*gg.Context, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("snapshot: empty image")
	}
	s := 1
	if opts != nil && opts.Scale > 1 {
		s = opts.Scale
	}
	w, h := b.Dx()*s, b.Dy()*s
	total := h
	if opts != nil && opts.Caption != "" {
		total += captionHeight
	}

	out := image.NewRGBA(image.Rect(0, 0, w, total))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			for sy := 0; sy < s; sy++ {
				for sx := 0; sx < s; sx++ {
					out.SetRGBA(x*s+sx, y*s+sy, c)
				}
			}
		}
	}

	dc := gg.NewContextForRGBA(out)
	if opts != nil && opts.Grid && s >= 4 {
		dc.SetColor(gridColor)
		dc.SetLineWidth(1)
		for x := 0; x <= b.Dx(); x++ {
			dc.DrawLine(float64(x*s)+0.5, 0, float64(x*s)+0.5, float64(h))
		}
		for y := 0; y <= b.Dy(); y++ {
			dc.DrawLine(0, float64(y*s)+0.5, float64(w), float64(y*s)+0.5)
		}
		dc.Stroke()
	}
	if opts != nil && opts.Caption != "" {
		dc.SetColor(color.Black)
		dc.DrawRectangle(0, float64(h), float64(w), captionHeight)
		dc.Fill()
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(opts.Caption, 2, float64(h)+captionHeight/2, 0, 0.35)
	}
	return dc, nil
}

// WritePNG renders img and encodes it as PNG to w.
func WritePNG(w io.Writer, img image.Image, opts *Opts) error {
	dc, err := render(img, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG renders img to the PNG file at path.
func SavePNG(path string, img image.Image, opts *Opts) error {
	dc, err := render(img, opts)
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}
