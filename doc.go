// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcd is a container for the ST7789 panel driver and the drawing
// helpers it is built from.
//
// The driver lives in st7789. The pixel store format is in rgb565, bitmap
// fonts in glyph, text rendering in textlayout, rounded shapes and arcs in
// shape, and the flush counter in framerate. termview and videosink mirror
// flushed frames to a terminal or a browser while developing on a host, and
// snapshot saves them as PNG. cmd/st7789demo ties everything together.
package lcd
