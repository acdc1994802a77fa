// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package st7789 controls a ST7789 driven 16 bits color LCD over 4-wire SPI.
//
// The driver keeps the whole frame in memory as RGB565 and sends it to the
// panel on Flush. Text, rounded rectangles and arcs are rasterized in the
// frame with the textlayout and shape packages.
//
// Drawing and flushing are not synchronized; use a Dev from one goroutine at
// a time.
//
// # Datasheet
//
// https://www.rhydolabz.com/documents/33/ST7789.pdf
//
// # Wiring
//
// Connect SDA to SPI MOSI and SCL to SPI CLK. DC, RES and, optionally, CS
// are driven as GPIO outputs. Pass nil for cs when the panel chip select is
// tied low or handled by the SPI controller.
package st7789
