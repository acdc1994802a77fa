// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shape composes rounded shapes and arcs from the raster primitives
// of a pixel store.
package shape

import (
	"math"

	"github.com/GermanBionicSystems/lcd/rgb565"
)

// Raster is the set of primitives the shapes are built from.
// *rgb565.Image implements it.
type Raster interface {
	SetRGB565(x, y int, c rgb565.Color)
	FillRect(x, y, w, h int, c rgb565.Color)
	FillCircle(cx, cy, r int, c rgb565.Color)
}

// RoundedRect fills a rectangle with corners rounded to radius rad.
//
// The outline spans x to x+w and y to y+h inclusive. The two bands overlap
// the corner circles by one pixel so no seam is left between them.
func RoundedRect(dst Raster, x, y, w, h, rad int, c rgb565.Color) {
	dst.FillCircle(x+rad, y+rad, rad, c)
	dst.FillCircle(x+w-rad, y+rad, rad, c)
	dst.FillRect(x+rad, y, w-2*rad, h+1, c)
	dst.FillCircle(x+rad, y+h-rad, rad, c)
	dst.FillCircle(x+w-rad, y+h-rad, rad, c)
	dst.FillRect(x, y+rad, w+1, h-2*rad, c)
}

// Pill fills a stadium: a rectangle whose left and right sides are half
// circles of radius h/2. It returns the radius.
func Pill(dst Raster, x, y, w, h int, c rgb565.Color) int {
	rad := h / 2
	dst.FillCircle(x+rad, y+rad, rad, c)
	dst.FillRect(x+rad, y, w-h, h+1, c)
	dst.FillCircle(x+w-rad, y+rad, rad, c)
	return rad
}

// Arc plots a circular arc centered on (x, y).
//
// The arc starts at angle start, in degrees, 0 pointing right and angles
// growing clockwise on screen, and covers sweep degrees; sweep is clamped to
// [0, 360]. When clockwise is false the arc goes the other way. The circle is
// sampled every half degree. stroke > 1 redraws the arc at radius rad-1,
// rad-2, ... to thicken it inward.
func Arc(dst Raster, x, y, rad int, start, sweep float64, c rgb565.Color, clockwise bool, stroke int) {
	start = math.Mod(start, 360)
	if start < 0 {
		start += 360
	}
	sweep = math.Max(0, math.Min(sweep, 360))
	span := sweep
	if !clockwise {
		span = -sweep
	}
	n := int(math.Abs(span) * 2)
	for ; stroke > 0 && rad >= 0; stroke-- {
		if n == 0 {
			plot(dst, x, y, rad, start, c)
		} else {
			for i := 0; i <= n; i++ {
				plot(dst, x, y, rad, start+float64(i)/float64(n)*span, c)
			}
		}
		rad--
	}
}

func plot(dst Raster, x, y, rad int, deg float64, c rgb565.Color) {
	a := deg * math.Pi / 180
	r := float64(rad)
	dst.SetRGB565(x+int(r*math.Cos(a)), y+int(r*math.Sin(a)), c)
}
