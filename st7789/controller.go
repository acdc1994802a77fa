// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import "time"

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	delay(time.Duration)
}

// initDisplay sends the power up sequence. Color mode and orientation must be
// set before anything is drawn.
func initDisplay(ctrl controller, orientation byte) {
	for _, s := range []struct {
		cmd  byte
		data []byte
	}{
		{cmd: swReset},
		{cmd: slpOut},
		{cmd: colMod, data: []byte{colorMode16}},
		{cmd: invOff},
		{cmd: norOn},
		{cmd: dispOn},
		{cmd: madCtl, data: []byte{orientation}},
	} {
		ctrl.sendCommand(s.cmd)
		if s.data != nil {
			ctrl.sendData(s.data)
		}
		ctrl.delay(commandSettle)
	}
}

// setWindow selects the inclusive rectangle the next RAM write fills.
func setWindow(ctrl controller, x0, y0, x1, y1 int) {
	ctrl.sendCommand(caSet)
	ctrl.sendData([]byte{byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)})
	ctrl.sendCommand(raSet)
	ctrl.sendData([]byte{byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)})
}

// beginWrite starts a RAM write. Pixel data follows as data bytes.
func beginWrite(ctrl controller) {
	ctrl.sendCommand(ramWr)
}

func invert(ctrl controller, on bool) {
	if on {
		ctrl.sendCommand(invOn)
	} else {
		ctrl.sendCommand(invOff)
	}
}

func sleepIn(ctrl controller) {
	ctrl.sendCommand(slpIn)
	ctrl.delay(sleepInSettle)
}

func sleepOut(ctrl controller) {
	ctrl.sendCommand(slpOut)
	ctrl.delay(sleepOutSettle)
}
