// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgb565 implements a 16 bits per pixel image in the 5-6-5 layout
// used by ST7789 class LCD controllers.
//
// Pixels are stored big endian, which is the order the controller expects on
// the wire, so the Pix slice can be sent to the panel as is.
package rgb565

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"tinygo.org/x/drivers"
)

// Color is a packed 5-6-5 color: 5 bits red, 6 bits green, 5 bits blue.
type Color uint16

// Common colors.
const (
	Black   Color = 0x0000
	White   Color = 0xFFFF
	Red     Color = 0xF800
	Green   Color = 0x07E0
	Blue    Color = 0x001F
	Yellow  Color = 0xFFE0
	Cyan    Color = 0x07FF
	Magenta Color = 0xF81F
)

// RGB packs 8 bits per channel values, dropping the low bits.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGBA implements color.Color.
//
// Channels are expanded by replicating their high bits so that White maps to
// 0xFFFF.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	r = r5<<3 | r5>>2
	g = g6<<2 | g6>>4
	b = b5<<3 | b5>>2
	return r | r<<8, g | g<<8, b | b<<8, 0xFFFF
}

func convert(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts any color to Color.
var Model = color.ModelFunc(convert)

// Image is an in-memory image of Color values.
//
// len(Pix) is always Rect.Dx()*Rect.Dy()*2.
type Image struct {
	// Pix holds the pixels, two bytes each, high byte first.
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// New returns an initialized Image. It is black.
func New(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]byte, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
	}
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.RGB565At(x, y)
}

// RGB565At returns the Color at (x, y), Black when outside the image.
func (i *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return Black
	}
	o := i.PixOffset(x, y)
	return Color(uint16(i.Pix[o])<<8 | uint16(i.Pix[o+1]))
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	i.SetRGB565(x, y, Model.Convert(c).(Color))
}

// SetRGB565 sets the pixel at (x, y). Writes outside the image are dropped.
func (i *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	o := i.PixOffset(x, y)
	i.Pix[o] = byte(c >> 8)
	i.Pix[o+1] = byte(c)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (i *Image) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*2
}

// Fill paints the whole image.
func (i *Image) Fill(c Color) {
	i.FillRect(i.Rect.Min.X, i.Rect.Min.Y, i.Rect.Dx(), i.Rect.Dy(), c)
}

// FillRect paints the w×h rectangle whose top left corner is (x, y). The
// rectangle is clipped to the image.
func (i *Image) FillRect(x, y, w, h int, c Color) {
	r := image.Rect(x, y, x+w, y+h).Intersect(i.Rect)
	if w <= 0 || h <= 0 || r.Empty() {
		return
	}
	hi, lo := byte(c>>8), byte(c)
	for py := r.Min.Y; py < r.Max.Y; py++ {
		row := i.Pix[i.PixOffset(r.Min.X, py):i.PixOffset(r.Max.X, py)]
		for o := 0; o < len(row); o += 2 {
			row[o] = hi
			row[o+1] = lo
		}
	}
}

// HLine draws a horizontal line of w pixels starting at (x, y).
func (i *Image) HLine(x, y, w int, c Color) {
	i.FillRect(x, y, w, 1, c)
}

// VLine draws a vertical line of h pixels starting at (x, y).
func (i *Image) VLine(x, y, h int, c Color) {
	i.FillRect(x, y, 1, h, c)
}

// FillCircle paints every pixel whose distance to (cx, cy) is at most r.
//
// A radius of 0 paints the center pixel only.
func (i *Image) FillCircle(cx, cy, r int, c Color) {
	if r < 0 {
		return
	}
	for dy := -r; dy <= r; dy++ {
		dx := isqrt(r*r - dy*dy)
		i.HLine(cx-dx, cy+dy, 2*dx+1, c)
	}
}

// isqrt returns floor(sqrt(n)) for n >= 0.
func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

// Size implements drivers.Displayer.
//
// drivers.Displayer sizes are int16; dimensions above 32767 are reported as
// 32767.
func (i *Image) Size() (x, y int16) {
	return clamp16(i.Rect.Dx()), clamp16(i.Rect.Dy())
}

func clamp16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(v)
}

// SetPixel implements drivers.Displayer so tinyfont and tinydraw can render
// directly into the image.
func (i *Image) SetPixel(x, y int16, c color.RGBA) {
	i.SetRGB565(int(x), int(y), RGB(c.R, c.G, c.B))
}

// Display implements drivers.Displayer. The image has no backing device.
func (i *Image) Display() error {
	return nil
}

var _ draw.Image = &Image{}
var _ drivers.Displayer = &Image{}
