// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/gpio"
)

// The panel drops the start of a RAM write at high bus speeds. Every flush
// first sends PrimeLines blocks of PrimeLineBytes zero bytes. Set PrimeLines
// to 0 on panels that do not need it.
var (
	PrimeLines     = 70
	PrimeLineBytes = 320
)

// Flush sends the whole frame to the panel.
//
// Chip select stays asserted for the priming bytes and the frame. The frame
// rate monitor and the mirror only see successful flushes.
func (d *Dev) Flush() error {
	if d.state != Ready {
		return ErrNotReady
	}
	eh := errorHandler{d: d}
	beginWrite(&eh)
	if eh.err != nil {
		return fmt.Errorf("st7789: flush failed: %w", eh.err)
	}
	eh.csSelect()
	eh.dcOut(gpio.High)
	if PrimeLines > 0 && PrimeLineBytes > 0 {
		prime := make([]byte, PrimeLineBytes)
		for i := 0; i < PrimeLines; i++ {
			eh.cTx(prime)
		}
	}
	eh.cTx(d.img.Pix)
	eh.csRelease()
	if eh.err != nil {
		return fmt.Errorf("st7789: flush failed: %w", eh.err)
	}
	d.fps.Tick()
	if d.mirror != nil {
		if err := d.mirror.Draw(d.rect, d.img, image.Point{}); err != nil {
			return fmt.Errorf("st7789: mirror failed: %w", err)
		}
	}
	return nil
}
