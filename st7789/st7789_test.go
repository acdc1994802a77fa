// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/GermanBionicSystems/lcd/glyph"
	"github.com/GermanBionicSystems/lcd/rgb565"
	"github.com/GermanBionicSystems/lcd/textlayout"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

// event is one step seen by the panel: a line change, a transfer or a wait.
type event struct {
	pin   string
	level gpio.Level
	w     []byte
	wait  time.Duration
}

type trace struct {
	events []event
}

type tracePin struct {
	gpiotest.Pin
	t *trace
}

func (p *tracePin) Out(l gpio.Level) error {
	p.t.events = append(p.t.events, event{pin: p.N, level: l})
	return p.Pin.Out(l)
}

// traceConn records transfers. Tx number failAt (1 based) fails.
type traceConn struct {
	t      *trace
	limit  int
	failAt int
	n      int
}

var errBus = errors.New("bus fault")

func (c *traceConn) String() string {
	return "trace"
}

func (c *traceConn) Duplex() conn.Duplex {
	return conn.Half
}

func (c *traceConn) MaxTxSize() int {
	return c.limit
}

func (c *traceConn) Tx(w, r []byte) error {
	c.n++
	if c.n == c.failAt {
		return errBus
	}
	c.t.events = append(c.t.events, event{w: append([]byte(nil), w...)})
	return nil
}

type rig struct {
	t   *trace
	c   *traceConn
	dc  *tracePin
	rst *tracePin
	cs  *tracePin
}

func newRig(t *testing.T, opts *Opts, withCS bool) (*Dev, *rig) {
	r := &rig{t: &trace{}}
	r.c = &traceConn{t: r.t}
	r.dc = &tracePin{Pin: gpiotest.Pin{N: "dc"}, t: r.t}
	r.rst = &tracePin{Pin: gpiotest.Pin{N: "rst"}, t: r.t}
	var cs gpio.PinOut
	if withCS {
		r.cs = &tracePin{Pin: gpiotest.Pin{N: "cs"}, t: r.t}
		cs = r.cs
	}
	d, err := newDev(r.c, r.dc, r.rst, cs, opts)
	if err != nil {
		t.Fatal(err)
	}
	d.sleep = func(w time.Duration) {
		r.t.events = append(r.t.events, event{wait: w})
	}
	return d, r
}

func (r *rig) reset() {
	r.t.events = nil
}

// Expected event builders.

func line(pin string, l gpio.Level) event {
	return event{pin: pin, level: l}
}

func tx(w ...byte) event {
	return event{w: w}
}

func wait(d time.Duration) event {
	return event{wait: d}
}

func cmdEvents(cs bool, cmd byte) []event {
	return transaction(cs, gpio.Low, tx(cmd))
}

func dataEvents(cs bool, data ...byte) []event {
	return transaction(cs, gpio.High, tx(data...))
}

func transaction(cs bool, dc gpio.Level, body ...event) []event {
	var out []event
	if cs {
		out = append(out, line("cs", gpio.Low))
	}
	out = append(out, line("dc", dc))
	out = append(out, body...)
	if cs {
		out = append(out, line("cs", gpio.High))
	}
	return out
}

func flushEvents(cs bool, pix []byte) []event {
	out := cmdEvents(cs, ramWr)
	var body []event
	for i := 0; i < 70; i++ {
		body = append(body, tx(make([]byte, 320)...))
	}
	body = append(body, tx(pix...))
	return append(out, transaction(cs, gpio.High, body...)...)
}

func diffEvents(got, want []event) string {
	return cmp.Diff(got, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(event{}))
}

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name       string
		opts       Opts
		wantString string
		wantBounds image.Rectangle
	}{
		{
			name:       "default",
			opts:       DefaultOpts,
			wantString: "st7789.Dev{trace, dc(0), (320,206)}",
			wantBounds: image.Rect(0, 0, 320, 206),
		},
		{
			name:       "square",
			opts:       Opts{W: 240, H: 240},
			wantString: "st7789.Dev{trace, dc(0), (240,240)}",
			wantBounds: image.Rect(0, 0, 240, 240),
		},
		{
			name:       "tiny",
			opts:       Opts{W: 1, H: 1},
			wantString: "st7789.Dev{trace, dc(0), (1,1)}",
			wantBounds: image.Rect(0, 0, 1, 1),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, r := newRig(t, &tc.opts, true)
			if diff := cmp.Diff(d.String(), tc.wantString); diff != "" {
				t.Errorf("String() difference (-got +want):\n%s", diff)
			}
			if diff := cmp.Diff(d.Bounds(), tc.wantBounds); diff != "" {
				t.Errorf("Bounds() difference (-got +want):\n%s", diff)
			}
			if n := len(d.Image().Pix); n != tc.opts.W*tc.opts.H*2 {
				t.Errorf("frame is %d bytes", n)
			}
			if d.State() != PoweredOff {
				t.Errorf("State() = %s", d.State())
			}
			if d.ColorModel() != rgb565.Model {
				t.Error("unexpected color model")
			}
			if len(r.t.events) != 0 {
				t.Errorf("New() touched the panel: %v", r.t.events)
			}
		})
	}
}

func TestNew_invalid(t *testing.T) {
	for _, opts := range []Opts{{}, {W: 10}, {H: 10}, {W: -1, H: 3}, {W: 0x10000, H: 1}} {
		if _, err := newDev(&traceConn{}, &gpiotest.Pin{}, &gpiotest.Pin{}, nil, &opts); err == nil {
			t.Errorf("%dx%d: expected error", opts.W, opts.H)
		}
	}
	if _, err := New(&spitest.Record{}, nil, &gpiotest.Pin{}, nil, &DefaultOpts); err == nil {
		t.Error("expected error without dc")
	}
}

func TestNew_spi(t *testing.T) {
	port := spitest.Record{}
	d, err := New(&port, &gpiotest.Pin{N: "dc"}, &gpiotest.Pin{N: "rst"}, gpio.INVALID, &Opts{W: 4, H: 2, Speed: 10 * physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	d.sleep = func(time.Duration) {}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	// 7 init commands, 2 parameters, window (4), RAMWR, priming and frame.
	if got, want := len(port.Ops), 7+2+4+1+70+1; got != want {
		t.Fatalf("%d transfers, want %d", got, want)
	}
	want := []conntest.IO{
		{W: []byte{swReset}},
		{W: []byte{slpOut}},
		{W: []byte{colMod}},
		{W: []byte{colorMode16}},
	}
	if diff := cmp.Diff(port.Ops[:4], want, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("init sequence (-got +want):\n%s", diff)
	}
	if !bytes.Equal(port.Ops[len(port.Ops)-1].W, make([]byte, 16)) {
		t.Fatalf("unexpected frame %v", port.Ops[len(port.Ops)-1].W)
	}
}

func TestInit(t *testing.T) {
	for _, withCS := range []bool{true, false} {
		d, r := newRig(t, &Opts{W: 4, H: 3, Orientation: DefaultOrientation}, withCS)
		if err := d.Init(); err != nil {
			t.Fatal(err)
		}
		want := []event{
			line("rst", gpio.Low), wait(50 * time.Millisecond),
			line("rst", gpio.High), wait(150 * time.Millisecond),
		}
		for _, s := range []struct {
			cmd  byte
			data []byte
		}{
			{swReset, nil},
			{slpOut, nil},
			{colMod, []byte{0x1D}},
			{invOff, nil},
			{norOn, nil},
			{dispOn, nil},
			{madCtl, []byte{0xAA}},
		} {
			want = append(want, cmdEvents(withCS, s.cmd)...)
			if s.data != nil {
				want = append(want, dataEvents(withCS, s.data...)...)
			}
			want = append(want, wait(100*time.Millisecond))
		}
		want = append(want, cmdEvents(withCS, caSet)...)
		want = append(want, dataEvents(withCS, 0, 0, 0, 3)...)
		want = append(want, cmdEvents(withCS, raSet)...)
		want = append(want, dataEvents(withCS, 0, 0, 0, 2)...)
		want = append(want, flushEvents(withCS, make([]byte, 4*3*2))...)
		if diff := diffEvents(r.t.events, want); diff != "" {
			t.Errorf("cs=%t: Init() difference (-got +want):\n%s", withCS, diff)
		}
		if d.State() != Ready {
			t.Errorf("State() = %s", d.State())
		}
	}
}

func TestFlush(t *testing.T) {
	for _, limit := range []int{0, 4096, 100} {
		d, r := newRig(t, &DefaultOpts, true)
		if err := d.Flush(); !errors.Is(err, ErrNotReady) {
			t.Fatalf("Flush() = %v", err)
		}
		if err := d.Init(); err != nil {
			t.Fatal(err)
		}
		d.maxTxSize = limit
		d.Image().FillRect(10, 10, 5, 5, rgb565.Red)
		r.reset()
		if err := d.Flush(); err != nil {
			t.Fatal(err)
		}
		start := -1
		var payload []byte
		for i, e := range r.t.events {
			if e.w == nil {
				continue
			}
			if limit > 0 && len(e.w) > limit {
				t.Fatalf("transfer of %d bytes over the %d limit", len(e.w), limit)
			}
			if start >= 0 {
				payload = append(payload, e.w...)
			} else if bytes.Equal(e.w, []byte{ramWr}) {
				start = i
			}
		}
		if start < 0 {
			t.Fatal("no RAM write")
		}
		if got, want := len(payload), 70*320+320*206*2; got != want {
			t.Fatalf("limit %d: %d bytes after RAMWR, want %d", limit, got, want)
		}
		if !bytes.Equal(payload[:70*320], make([]byte, 70*320)) {
			t.Fatal("priming bytes are not zero")
		}
		if !bytes.Equal(payload[70*320:], d.Image().Pix) {
			t.Fatal("frame mismatch")
		}
		// One chip select pulse for the command, one for the payload.
		var cs []gpio.Level
		for _, e := range r.t.events {
			if e.pin == "cs" {
				cs = append(cs, e.level)
			}
		}
		if diff := cmp.Diff(cs, []gpio.Level{gpio.Low, gpio.High, gpio.Low, gpio.High}); diff != "" {
			t.Fatalf("cs difference (-got +want):\n%s", diff)
		}
	}
}

func TestFlush_noPriming(t *testing.T) {
	defer func(l int) { PrimeLines = l }(PrimeLines)
	PrimeLines = 0
	d, r := newRig(t, &Opts{W: 2, H: 1}, false)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	r.reset()
	if err := d.Flush(); err != nil {
		t.Fatal(err)
	}
	want := append(cmdEvents(false, ramWr), transaction(false, gpio.High, tx(0, 0, 0, 0))...)
	if diff := diffEvents(r.t.events, want); diff != "" {
		t.Errorf("Flush() difference (-got +want):\n%s", diff)
	}
}

type fakeMirror struct {
	frames int
	last   []byte
}

func (m *fakeMirror) String() string          { return "mirror" }
func (m *fakeMirror) Halt() error             { return nil }
func (m *fakeMirror) ColorModel() color.Model { return rgb565.Model }
func (m *fakeMirror) Bounds() image.Rectangle { return image.Rect(0, 0, 2, 2) }

func (m *fakeMirror) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	m.frames++
	m.last = append([]byte(nil), src.(*rgb565.Image).Pix...)
	return nil
}

func TestBusFault(t *testing.T) {
	// Fail the first transfer, the SWRESET command.
	m := &fakeMirror{}
	d, r := newRig(t, &Opts{W: 2, H: 2, Mirror: m}, true)
	r.c.failAt = 1
	err := d.Init()
	if !errors.Is(err, errBus) {
		t.Fatalf("Init() = %v", err)
	}
	if d.State() != PoweredOff {
		t.Fatalf("State() = %s", d.State())
	}
	// Nothing is sent after the failure; chip select is released.
	last := r.t.events[len(r.t.events)-1]
	if diff := cmp.Diff(last, line("cs", gpio.High), cmp.AllowUnexported(event{})); diff != "" {
		t.Fatalf("last event difference (-got +want):\n%s", diff)
	}

	// Fail in the middle of the frame.
	d, r = newRig(t, &Opts{W: 2, H: 2, Mirror: m}, true)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if m.frames != 1 {
		t.Fatalf("mirror saw %d frames", m.frames)
	}
	r.reset()
	r.c.failAt = r.c.n + 30
	if err := d.Flush(); !errors.Is(err, errBus) {
		t.Fatalf("Flush() = %v", err)
	}
	if m.frames != 1 {
		t.Fatalf("mirror saw a failed frame")
	}
	n := 0
	for _, e := range r.t.events {
		if e.w != nil {
			n++
		}
	}
	if n != 29 {
		t.Fatalf("%d transfers before the failure, want 29", n)
	}
	last = r.t.events[len(r.t.events)-1]
	if diff := cmp.Diff(last, line("cs", gpio.High), cmp.AllowUnexported(event{})); diff != "" {
		t.Fatalf("last event difference (-got +want):\n%s", diff)
	}
}

func TestSetWindow(t *testing.T) {
	d, r := newRig(t, &DefaultOpts, true)
	if err := d.SetWindow(0, 0, 1, 1); !errors.Is(err, ErrNotReady) {
		t.Fatalf("SetWindow() = %v", err)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	for _, w := range [][4]int{
		{10, 0, 9, 5},
		{0, 10, 5, 9},
		{-1, 0, 5, 5},
		{0, -1, 5, 5},
		{0, 0, 320, 5},
		{0, 0, 5, 206},
	} {
		r.reset()
		if err := d.SetWindow(w[0], w[1], w[2], w[3]); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("SetWindow%v = %v", w, err)
		}
		if len(r.t.events) != 0 {
			t.Errorf("SetWindow%v sent %v", w, r.t.events)
		}
	}
	r.reset()
	if err := d.SetWindow(0x100, 2, 0x13F, 2); err != nil {
		t.Fatal(err)
	}
	want := cmdEvents(true, caSet)
	want = append(want, dataEvents(true, 0x01, 0x00, 0x01, 0x3F)...)
	want = append(want, cmdEvents(true, raSet)...)
	want = append(want, dataEvents(true, 0, 2, 0, 2)...)
	if diff := diffEvents(r.t.events, want); diff != "" {
		t.Errorf("SetWindow() difference (-got +want):\n%s", diff)
	}
}

func TestInvertSleepHalt(t *testing.T) {
	d, r := newRig(t, &Opts{W: 2, H: 1}, false)
	if err := d.Invert(true); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Invert() = %v", err)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	r.reset()
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}
	if !d.Asleep() {
		t.Fatal("not asleep")
	}
	if err := d.Wake(); err != nil {
		t.Fatal(err)
	}
	var want []event
	want = append(want, cmdEvents(false, invOn)...)
	want = append(want, cmdEvents(false, invOff)...)
	want = append(want, cmdEvents(false, slpIn)...)
	want = append(want, wait(5*time.Millisecond))
	want = append(want, cmdEvents(false, slpOut)...)
	want = append(want, wait(120*time.Millisecond))
	if diff := diffEvents(r.t.events, want); diff != "" {
		t.Errorf("difference (-got +want):\n%s", diff)
	}

	d.Image().Fill(rgb565.White)
	d.EnableFrameRateMonitor(true)
	r.reset()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	want = flushEvents(false, make([]byte, 4))
	want = append(want, cmdEvents(false, slpIn)...)
	want = append(want, wait(5*time.Millisecond))
	if diff := diffEvents(r.t.events, want); diff != "" {
		t.Errorf("Halt() difference (-got +want):\n%s", diff)
	}
	if d.fps.Enabled() {
		t.Error("frame rate monitor still running")
	}
}

func TestDraw(t *testing.T) {
	m := &fakeMirror{}
	d, _ := newRig(t, &Opts{W: 3, H: 2, Mirror: m}, true)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if err := d.Draw(d.Bounds(), &image.Uniform{C: color.RGBA{R: 0xFF, A: 0xFF}}, image.Point{}); err != nil {
		t.Fatal(err)
	}
	want := bytes.Repeat([]byte{0xF8, 0x00}, 6)
	if !bytes.Equal(m.last, want) {
		t.Fatalf("mirror got %x", m.last)
	}

	src := rgb565.New(d.Bounds())
	src.Fill(rgb565.Blue)
	if err := d.Draw(d.Bounds(), src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d.Image().Pix, src.Pix) {
		t.Fatal("fast path mismatch")
	}

	if _, err := d.Write(make([]byte, 5)); err == nil {
		t.Fatal("expected error")
	}
	if n, err := d.Write(bytes.Repeat([]byte{0xFF}, 12)); n != 12 || err != nil {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if d.Image().RGB565At(2, 1) != rgb565.White {
		t.Fatal("Write() did not update the frame")
	}
	if m.frames != 4 {
		t.Fatalf("mirror saw %d frames", m.frames)
	}
}

var testFont = &glyph.Table{
	Glyphs: map[rune]glyph.Glyph{
		'H': glyph.MustFromRows(
			"#..#",
			"#..#",
			"####",
			"#..#",
		),
		'i': glyph.MustFromRows(
			"#",
			".",
			"#",
			"#",
		),
	},
}

func TestDrawText(t *testing.T) {
	d, _ := newRig(t, &Opts{W: 20, H: 10, Font: testFont}, false)
	w, h := d.DrawText("Hi", 1, 2, rgb565.Green, nil)
	if w != 5 || h != 4 {
		t.Fatalf("DrawText() = %d, %d", w, h)
	}
	want := rgb565.New(image.Rect(0, 0, 20, 10))
	textlayout.Draw(want, "Hi", 1, 2, rgb565.Green, &textlayout.Opts{Font: testFont})
	if !bytes.Equal(want.Pix, d.Image().Pix) {
		t.Fatal("frame mismatch")
	}
	if got := d.MeasureText("H i", nil); got != 7 {
		t.Fatalf("MeasureText() = %d", got)
	}
	if got := d.MeasureText("A", glyph.Default()); got != 7 {
		t.Fatalf("MeasureText() = %d", got)
	}

	// Wrapping uses the panel width.
	d.Fill(rgb565.Black)
	d.DrawText("HHHHHHHHHH", 0, 0, rgb565.White, &TextOpts{Wrap: true})
	for y := 0; y < 10; y++ {
		for x := 20 - 4; x < 20; x++ {
			if d.Image().RGB565At(x, y) != rgb565.Black {
				t.Fatalf("pixel at (%d, %d) past the wrap edge", x, y)
			}
		}
	}
	if d.Image().RGB565At(0, 4) != rgb565.White {
		t.Fatal("second line missing")
	}

	// An alternate target leaves the frame alone.
	d.Fill(rgb565.Black)
	target := rgb565.New(image.Rect(0, 0, 8, 8))
	d.DrawText("H", 0, 0, rgb565.White, &TextOpts{Target: target})
	if target.RGB565At(0, 0) != rgb565.White {
		t.Fatal("target not drawn")
	}
	if !bytes.Equal(d.Image().Pix, make([]byte, 20*10*2)) {
		t.Fatal("frame modified")
	}
}

func TestShapes(t *testing.T) {
	d, _ := newRig(t, &Opts{W: 40, H: 40}, false)
	d.RoundedRect(2, 2, 10, 8, 3, rgb565.Red)
	if d.Image().RGB565At(7, 6) != rgb565.Red || d.Image().RGB565At(2, 2) != rgb565.Black {
		t.Fatal("unexpected rounded rectangle")
	}
	if r := d.Pill(2, 20, 20, 6, rgb565.Blue); r != 3 {
		t.Fatalf("Pill() = %d", r)
	}
	if d.Image().RGB565At(12, 23) != rgb565.Blue {
		t.Fatal("unexpected pill")
	}
	d.Arc(30, 30, 5, 0, 90, rgb565.Yellow, true, 1)
	if d.Image().RGB565At(35, 30) != rgb565.Yellow || d.Image().RGB565At(30, 35) != rgb565.Yellow {
		t.Fatal("unexpected arc")
	}
	if d.Image().RGB565At(25, 30) != rgb565.Black {
		t.Fatal("arc overshoot")
	}
}
