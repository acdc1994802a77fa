// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shape

import (
	"image"
	"math"
	"testing"

	"github.com/GermanBionicSystems/lcd/rgb565"
	"github.com/google/go-cmp/cmp"
)

type point struct {
	X, Y int
}

// tracer records SetRGB565 calls in order and forwards the fills.
type tracer struct {
	*rgb565.Image
	points []point
}

func (t *tracer) SetRGB565(x, y int, c rgb565.Color) {
	t.points = append(t.points, point{x, y})
	t.Image.SetRGB565(x, y, c)
}

func newTracer() *tracer {
	return &tracer{Image: rgb565.New(image.Rect(0, 0, 200, 200))}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func TestRoundedRect(t *testing.T) {
	for _, size := range []struct{ w, h int }{{20, 10}, {9, 31}, {16, 16}, {2, 5}} {
		m := size.w
		if size.h < m {
			m = size.h
		}
		for rad := 0; rad <= m/2; rad++ {
			img := rgb565.New(image.Rect(0, 0, 64, 64))
			const x, y = 5, 7
			RoundedRect(img, x, y, size.w, size.h, rad, rgb565.White)
			for py := y; py <= y+size.h; py++ {
				for px := x; px <= x+size.w; px++ {
					// Nearest point of the rectangle spanned by the corner centers.
					qx := clamp(px, x+rad, x+size.w-rad)
					qy := clamp(py, y+rad, y+size.h-rad)
					dx, dy := px-qx, py-qy
					if dx*dx+dy*dy > rad*rad {
						continue
					}
					if img.RGB565At(px, py) != rgb565.White {
						t.Fatalf("%dx%d r=%d: hole at (%d, %d)", size.w, size.h, rad, px, py)
					}
				}
			}
			// Nothing is drawn outside the outline.
			for py := 0; py < 64; py++ {
				for px := 0; px < 64; px++ {
					in := px >= x && px <= x+size.w && py >= y && py <= y+size.h
					if !in && img.RGB565At(px, py) != rgb565.Black {
						t.Fatalf("%dx%d r=%d: spill at (%d, %d)", size.w, size.h, rad, px, py)
					}
				}
			}
		}
	}
}

func TestPill(t *testing.T) {
	img := rgb565.New(image.Rect(0, 0, 64, 32))
	if r := Pill(img, 2, 3, 40, 10, rgb565.Red); r != 5 {
		t.Fatalf("Pill() = %d", r)
	}
	for _, p := range []point{{7, 3}, {2, 8}, {42, 8}, {22, 13}, {37, 13}} {
		if img.RGB565At(p.X, p.Y) != rgb565.Red {
			t.Fatalf("(%d, %d) not filled", p.X, p.Y)
		}
	}
	for _, p := range []point{{2, 3}, {42, 3}, {1, 8}, {43, 8}} {
		if img.RGB565At(p.X, p.Y) != rgb565.Black {
			t.Fatalf("(%d, %d) filled", p.X, p.Y)
		}
	}
}

func TestArc_fullCircle(t *testing.T) {
	for _, rad := range []int{1, 5, 10, 40, 100} {
		tr := newTracer()
		Arc(tr, 100, 100, rad, 0, 360, rgb565.White, true, 1)
		if len(tr.points) != 721 {
			t.Fatalf("r=%d: %d points", rad, len(tr.points))
		}
		if tr.points[0] != (point{100 + rad, 100}) {
			t.Fatalf("r=%d: starts at %v", rad, tr.points[0])
		}
		prev := tr.points[len(tr.points)-1]
		for _, p := range tr.points {
			if abs(p.X-prev.X) > 1 || abs(p.Y-prev.Y) > 1 {
				t.Fatalf("r=%d: gap between %v and %v", rad, prev, p)
			}
			d := math.Hypot(float64(p.X-100), float64(p.Y-100))
			if d > float64(rad) || d < float64(rad)-1.5 {
				t.Fatalf("r=%d: %v is %g away from the center", rad, p, d)
			}
			prev = p
		}
	}
}

func TestArc_quadrant(t *testing.T) {
	tr := newTracer()
	Arc(tr, 50, 50, 10, 0, 90, rgb565.White, true, 1)
	if diff := cmp.Diff(point{60, 50}, tr.points[0]); diff != "" {
		t.Fatalf("start (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(point{50, 60}, tr.points[len(tr.points)-1]); diff != "" {
		t.Fatalf("end (-want +got):\n%s", diff)
	}
	last := -1.
	for _, p := range tr.points {
		if p.X < 50 || p.Y < 50 {
			t.Fatalf("%v outside the first quadrant", p)
		}
		a := math.Atan2(float64(p.Y-50), float64(p.X-50))
		if a < last {
			t.Fatalf("%v goes backward", p)
		}
		last = a
	}

	tr = newTracer()
	Arc(tr, 50, 50, 10, 0, 90, rgb565.White, false, 1)
	for _, p := range tr.points {
		if p.X < 50 || p.Y > 50 {
			t.Fatalf("counter-clockwise: %v outside the fourth quadrant", p)
		}
	}
	if diff := cmp.Diff(point{50, 40}, tr.points[len(tr.points)-1]); diff != "" {
		t.Fatalf("counter-clockwise end (-want +got):\n%s", diff)
	}
}

func TestArc_normalize(t *testing.T) {
	a, b := newTracer(), newTracer()
	Arc(a, 50, 50, 10, 450, 30, rgb565.White, true, 1)
	Arc(b, 50, 50, 10, 90, 30, rgb565.White, true, 1)
	if diff := cmp.Diff(b.points, a.points); diff != "" {
		t.Fatalf("450° != 90° (-want +got):\n%s", diff)
	}
	c := newTracer()
	Arc(c, 50, 50, 10, -270, 30, rgb565.White, true, 1)
	if diff := cmp.Diff(b.points, c.points); diff != "" {
		t.Fatalf("-270° != 90° (-want +got):\n%s", diff)
	}

	z := newTracer()
	Arc(z, 50, 50, 10, 0, 0, rgb565.White, true, 1)
	if diff := cmp.Diff([]point{{60, 50}}, z.points); diff != "" {
		t.Fatalf("empty sweep (-want +got):\n%s", diff)
	}
}

func TestArc_stroke(t *testing.T) {
	tr := newTracer()
	Arc(tr, 50, 50, 10, 0, 90, rgb565.White, true, 3)
	if len(tr.points) != 3*181 {
		t.Fatalf("%d points", len(tr.points))
	}
	for i, want := range []point{{60, 50}, {59, 50}, {58, 50}} {
		if got := tr.points[i*181]; got != want {
			t.Fatalf("pass %d starts at %v, want %v", i, got, want)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
