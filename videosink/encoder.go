// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
)

// bufferPool stores reusable []byte instances.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return []byte(nil)
	},
}

type pngEncoderBufferPool sync.Pool

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	buf, _ := (*sync.Pool)(p).Get().(*png.EncoderBuffer)
	return buf
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	(*sync.Pool)(p).Put(buf)
}

// pngEncoder shares its buffers between all displays. Frames are small and
// change often so speed wins over size.
var pngEncoder = png.Encoder{
	CompressionLevel: png.BestSpeed,
	BufferPool:       &pngEncoderBufferPool{},
}

// renderLocked expands the frame to RGBA, enlarged scale times.
func (d *Display) renderLocked(scale int) *image.RGBA {
	b := d.buffer.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := d.buffer.RGB565At(b.Min.X+x, b.Min.Y+y).RGBA()
			c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: 0xFF}
			for sy := 0; sy < scale; sy++ {
				o := out.PixOffset(x*scale, y*scale+sy)
				for sx := 0; sx < scale; sx++ {
					out.Pix[o+4*sx] = c.R
					out.Pix[o+4*sx+1] = c.G
					out.Pix[o+4*sx+2] = c.B
					out.Pix[o+4*sx+3] = c.A
				}
			}
		}
	}
	return out
}

func (d *Display) encodeBufferLocked(cfg imageConfig) ([]byte, error) {
	buf := bytes.NewBuffer(bufferPool.Get().([]byte)[:0])
	img := d.renderLocked(cfg.scale)

	switch cfg.format {
	case PNG:
		if err := pngEncoder.Encode(buf, img); err != nil {
			return nil, err
		}

	case JPEG:
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: d.quality}); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unhandled image format %s", cfg.format)
	}

	return buf.Bytes(), nil
}
