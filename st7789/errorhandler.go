// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is a wrapper for error management.
//
// The first error wins; every later step is a no-op, except releasing chip
// select.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.rst.Out(l)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.dc.Out(l)
}

// csSelect asserts chip select when the panel has one.
func (eh *errorHandler) csSelect() {
	if eh.err != nil || eh.d.cs == nil {
		return
	}
	eh.err = eh.d.cs.Out(gpio.Low)
}

// csRelease deasserts chip select even after an error.
func (eh *errorHandler) csRelease() {
	if eh.d.cs == nil {
		return
	}
	if err := eh.d.cs.Out(gpio.High); eh.err == nil {
		eh.err = err
	}
}

// cTx writes w, split in as many transfers as the connection requires.
func (eh *errorHandler) cTx(w []byte) {
	limit := eh.d.maxTxSize
	for len(w) > 0 && eh.err == nil {
		n := len(w)
		if limit > 0 && n > limit {
			n = limit
		}
		eh.err = eh.d.c.Tx(w[:n], nil)
		w = w[n:]
	}
}

func (eh *errorHandler) sendCommand(cmd byte) {
	if eh.err != nil {
		return
	}
	eh.csSelect()
	eh.dcOut(gpio.Low)
	eh.cTx([]byte{cmd})
	eh.csRelease()
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}
	eh.csSelect()
	eh.dcOut(gpio.High)
	eh.cTx(data)
	eh.csRelease()
}

func (eh *errorHandler) delay(d time.Duration) {
	if eh.err != nil {
		return
	}
	eh.d.sleep(d)
}

// reset pulses the reset line and waits for the panel to settle.
func (eh *errorHandler) reset() {
	eh.rstOut(gpio.Low)
	eh.delay(resetPulse)
	eh.rstOut(gpio.High)
	eh.delay(resetSettle)
}
