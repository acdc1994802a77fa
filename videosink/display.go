// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package videosink mirrors panel frames to web browsers.
//
// Display is a display.Drawer, usually installed as the Mirror of a panel,
// and an http.Handler. Each request gets the current frame and then a new
// image every time a frame is drawn, as a "multipart/x-mixed-replace" stream
// (MJPEG, https://en.wikipedia.org/wiki/Motion_JPEG). PNG is used by default
// since it keeps RGB565 pixel art sharp; JPEG can be selected with
// Options.Format or the "format" URL parameter.
//
// Small panels can be enlarged with the "scale" URL parameter. "?once=1"
// returns a single image instead of a stream.
package videosink

import (
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"sync"

	"github.com/GermanBionicSystems/lcd/rgb565"
	"periph.io/x/conn/v3/display"
)

// Options for videosink devices.
type Options struct {
	// Width and height of the frame, usually the panel size.
	Width, Height int

	// Format specifies the image format to send to clients.
	Format ImageFormat

	// Scale is the default integer enlargement, 1 when 0.
	Scale int

	// Quality of JPEG images, 1 to 100. Defaults to 90.
	Quality int
}

// Display keeps a copy of the last frame and streams it to HTTP clients.
type Display struct {
	defaultFormat ImageFormat
	defaultScale  int
	quality       int

	mu       sync.Mutex
	buffer   *rgb565.Image
	seq      uint64
	clients  map[*client]struct{}
	snapshot map[imageConfig][]byte
}

var _ display.Drawer = (*Display)(nil)
var _ http.Handler = (*Display)(nil)

// New creates a new videosink device instance. The initial frame is black.
func New(opt *Options) *Display {
	d := &Display{
		defaultFormat: opt.Format,
		defaultScale:  opt.Scale,
		quality:       opt.Quality,
		buffer:        rgb565.New(image.Rect(0, 0, opt.Width, opt.Height)),
		clients:       map[*client]struct{}{},
		snapshot:      map[imageConfig][]byte{},
	}
	if d.defaultScale < 1 {
		d.defaultScale = 1
	}
	if d.defaultScale > maxScale {
		d.defaultScale = maxScale
	}
	if d.quality < 1 || d.quality > 100 {
		d.quality = 90
	}
	return d
}

// String returns the name of the device.
func (d *Display) String() string {
	return "VideoSink"
}

// Halt implements conn.Resource and terminates all running client requests
// asynchronously.
func (d *Display) Halt() error {
	d.mu.Lock()
	d.terminateClientsLocked()
	d.mu.Unlock()

	return nil
}

// ColorModel implements display.Drawer.
func (d *Display) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer.
func (d *Display) Bounds() image.Rectangle {
	return d.buffer.Bounds()
}

// Frames returns the number of frames drawn so far.
func (d *Display) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Draw implements display.Drawer.
//
// Full frames in RGB565 are copied as is.
func (d *Display) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img, ok := src.(*rgb565.Image); ok && dstRect == d.buffer.Rect && img.Rect == d.buffer.Rect && srcPts == (image.Point{}) {
		copy(d.buffer.Pix, img.Pix)
	} else {
		draw.Draw(d.buffer, dstRect, src, srcPts, draw.Src)
	}
	d.seq++
	d.bufferChangedLocked()

	return nil
}
