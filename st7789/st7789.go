// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/GermanBionicSystems/lcd/framerate"
	"github.com/GermanBionicSystems/lcd/glyph"
	"github.com/GermanBionicSystems/lcd/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Commands
const (
	swReset byte = 0x01
	slpIn   byte = 0x10
	slpOut  byte = 0x11
	norOn   byte = 0x13
	invOff  byte = 0x20
	invOn   byte = 0x21
	dispOn  byte = 0x29
	caSet   byte = 0x2A
	raSet   byte = 0x2B
	ramWr   byte = 0x2C
	madCtl  byte = 0x36
	colMod  byte = 0x3A
)

// colorMode16 selects 65k colors, 16 bits per pixel.
const colorMode16 byte = 0b00011101

// Memory data access control bits.
const (
	// MY reverses the row address order.
	MY byte = 0x80
	// MX reverses the column address order.
	MX byte = 0x40
	// MV swaps rows and columns.
	MV byte = 0x20
	// ML reverses the vertical refresh order.
	ML byte = 0x10
)

// DefaultOrientation is landscape for the 320x206 panel. The low bits are
// required by this panel revision.
const DefaultOrientation = MY | MV | 0b00001010

const (
	resetPulse     = 50 * time.Millisecond
	resetSettle    = 150 * time.Millisecond
	commandSettle  = 100 * time.Millisecond
	sleepInSettle  = 5 * time.Millisecond
	sleepOutSettle = 120 * time.Millisecond
)

var (
	// ErrInvalidWindow is returned when an address window is empty, reversed
	// or outside the panel.
	ErrInvalidWindow = errors.New("st7789: invalid window")
	// ErrNotReady is returned when the panel was not initialized.
	ErrNotReady = errors.New("st7789: panel not initialized")
)

// State is the power up state of the panel.
type State int

// Possible states, in power up order.
const (
	PoweredOff State = iota
	Resetting
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case PoweredOff:
		return "PoweredOff"
	case Resetting:
		return "Resetting"
	case Initializing:
		return "Initializing"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Opts defines the options for the device.
type Opts struct {
	W int
	H int
	// Orientation is the memory data access control byte sent at init, a
	// combination of MY, MX, MV, ML and panel specific bits.
	Orientation byte
	// Speed of the SPI bus.
	Speed physic.Frequency
	// Font is used by DrawText when no font is given. glyph.Default() when
	// nil.
	Font glyph.Font
	// Mirror, when set, receives every successfully flushed frame.
	Mirror display.Drawer
}

// DefaultOpts is the configuration of the 320x206 panel found on the handpy
// boards.
var DefaultOpts = Opts{
	W:           320,
	H:           206,
	Orientation: DefaultOrientation,
	Speed:       80 * physic.MegaHertz,
}

// Dev is an open handle to the display controller.
type Dev struct {
	// Communication
	c         conn.Conn
	maxTxSize int
	dc        gpio.PinOut
	rst       gpio.PinOut
	cs        gpio.PinOut

	orientation byte
	rect        image.Rectangle
	// img is the frame, sent as is on Flush.
	img   *rgb565.Image
	font  glyph.Font
	fps   *framerate.Monitor
	state State
	// asleep is true between Sleep and Wake.
	asleep bool
	mirror display.Drawer
	sleep  func(time.Duration)
}

// New returns a Dev object that communicates over SPI to a ST7789 display
// controller.
//
// The panel is not touched until Init is called.
func New(p spi.Port, dc, rst, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || rst == nil {
		return nil, errors.New("st7789: dc and rst are required")
	}
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultOpts.Speed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7789: %w", err)
	}
	return newDev(c, dc, rst, cs, opts)
}

func newDev(c conn.Conn, dc, rst, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts.W <= 0 || opts.H <= 0 || opts.W > 0xFFFF || opts.H > 0xFFFF {
		return nil, fmt.Errorf("st7789: invalid size %dx%d", opts.W, opts.H)
	}
	if cs == gpio.INVALID {
		cs = nil
	}
	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}
	d := &Dev{
		c:           c,
		maxTxSize:   maxTxSize,
		dc:          dc,
		rst:         rst,
		cs:          cs,
		orientation: opts.Orientation,
		rect:        image.Rect(0, 0, opts.W, opts.H),
		font:        opts.Font,
		mirror:      opts.Mirror,
		sleep:       time.Sleep,
	}
	if d.font == nil {
		d.font = glyph.Default()
	}
	d.img = rgb565.New(d.rect)
	d.fps = framerate.New(&framerate.Opts{Name: "st7789"})
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7789.Dev{%s, %s, %s}", d.c, d.dc, d.rect.Max)
}

// State returns the power up state of the panel.
func (d *Dev) State() State {
	return d.state
}

// Init resets the panel, sends the initialization sequence, selects the full
// screen and shows a black frame.
//
// It takes about a second, most of it waiting for the panel to settle. Init
// can be called again to recover a panel or apply a new orientation.
func (d *Dev) Init() error {
	eh := errorHandler{d: d}
	d.state = Resetting
	eh.reset()
	if eh.err == nil {
		d.state = Initializing
		initDisplay(&eh, d.orientation)
	}
	if eh.err != nil {
		d.state = PoweredOff
		return fmt.Errorf("st7789: init failed: %w", eh.err)
	}
	d.state = Ready
	d.asleep = false
	if err := d.SetWindow(0, 0, d.rect.Dx()-1, d.rect.Dy()-1); err != nil {
		return err
	}
	d.img.Fill(rgb565.Black)
	return d.Flush()
}

// SetWindow selects the panel memory area, inclusive, written by the next
// RAM write.
//
// Nothing is sent when the window is invalid.
func (d *Dev) SetWindow(x0, y0, x1, y1 int) error {
	if d.state != Ready {
		return ErrNotReady
	}
	if x0 < 0 || y0 < 0 || x1 < x0 || y1 < y0 || x1 >= d.rect.Dx() || y1 >= d.rect.Dy() {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d) on %dx%d", ErrInvalidWindow, x0, y0, x1, y1, d.rect.Dx(), d.rect.Dy())
	}
	eh := errorHandler{d: d}
	setWindow(&eh, x0, y0, x1, y1)
	if eh.err != nil {
		return fmt.Errorf("st7789: set window failed: %w", eh.err)
	}
	return nil
}

// Invert inverts the colors on the panel without touching the frame.
func (d *Dev) Invert(on bool) error {
	if d.state != Ready {
		return ErrNotReady
	}
	eh := errorHandler{d: d}
	invert(&eh, on)
	return eh.err
}

// Sleep puts the panel in sleep mode. The frame memory is retained.
func (d *Dev) Sleep() error {
	if d.state != Ready {
		return ErrNotReady
	}
	eh := errorHandler{d: d}
	sleepIn(&eh)
	if eh.err != nil {
		return eh.err
	}
	d.asleep = true
	return nil
}

// Wake leaves sleep mode.
func (d *Dev) Wake() error {
	if d.state != Ready {
		return ErrNotReady
	}
	eh := errorHandler{d: d}
	sleepOut(&eh)
	if eh.err != nil {
		return eh.err
	}
	d.asleep = false
	return nil
}

// Asleep reports whether Sleep was called without a following Wake.
func (d *Dev) Asleep() bool {
	return d.asleep
}

// Halt implements conn.Resource.
//
// It stops the frame rate monitor, blanks the panel and puts it to sleep.
func (d *Dev) Halt() error {
	err := d.fps.Close()
	if d.state != Ready {
		return err
	}
	d.img.Fill(rgb565.Black)
	if err := d.Flush(); err != nil {
		return err
	}
	return d.Sleep()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Image returns the frame. Changes are shown on the next Flush.
func (d *Dev) Image() *rgb565.Image {
	return d.img
}

// Draw implements display.Drawer.
//
// It copies src in the frame and flushes it.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if img, ok := src.(*rgb565.Image); ok && r == d.rect && img.Rect == d.rect && sp == (image.Point{}) {
		copy(d.img.Pix, img.Pix)
	} else {
		draw.Src.Draw(d.img, r, src, sp)
	}
	return d.Flush()
}

// Write replaces the frame with pixels, big endian RGB565, and flushes it.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != len(d.img.Pix) {
		return 0, fmt.Errorf("st7789: invalid pixel stream length; expected %d bytes, got %d bytes", len(d.img.Pix), len(pixels))
	}
	copy(d.img.Pix, pixels)
	if err := d.Flush(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// EnableFrameRateMonitor starts or stops logging the number of flushes per
// second.
func (d *Dev) EnableFrameRateMonitor(on bool) {
	d.fps.Enable(on)
}

var _ display.Drawer = &Dev{}
