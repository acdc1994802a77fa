// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// st7789demo draws a splash screen and a spinner on a ST7789 panel.
//
// The frames can be mirrored to the terminal (-term), to web browsers (-http)
// and to a PNG file (-png). With -sim no hardware is needed: the SPI bus and
// the GPIO pins are replaced by fakes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/lcd/glyph"
	"github.com/GermanBionicSystems/lcd/rgb565"
	"github.com/GermanBionicSystems/lcd/snapshot"
	"github.com/GermanBionicSystems/lcd/st7789"
	"github.com/GermanBionicSystems/lcd/termview"
	"github.com/GermanBionicSystems/lcd/videosink"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/host/v3"
	"tinygo.org/x/tinyfont/freemono"
)

func main() {
	if err := mainImpl(); err != nil {
		logrus.WithError(err).Fatal("st7789demo")
	}
}

func mainImpl() error {
	spiID := flag.String("spi", "", "SPI port to use")
	dcName := flag.String("dc", "GPIO25", "data/command pin")
	rstName := flag.String("rst", "GPIO27", "reset pin")
	csName := flag.String("cs", "", "chip select pin, empty when driven by the SPI port")
	w := flag.Int("width", st7789.DefaultOpts.W, "panel width")
	h := flag.Int("height", st7789.DefaultOpts.H, "panel height")
	hz := st7789.DefaultOpts.Speed
	flag.Var(&hz, "hz", "SPI bus speed")
	fontName := flag.String("font", "basic", "font: basic, go or mono")
	ttf := flag.String("ttf", "", "TrueType font file, overrides -font")
	size := flag.Float64("size", 16, "font size for -font go and -ttf")
	frames := flag.Int("frames", 0, "number of frames to draw, 0 until interrupted")
	fps := flag.Bool("fps", false, "log the frame rate every second")
	term := flag.Bool("term", false, "mirror frames to the terminal")
	termScale := flag.Int("term-scale", 4, "terminal downsampling factor")
	httpAddr := flag.String("http", "", "serve frames to web browsers on this address, e.g. :8010")
	pngPath := flag.String("png", "", "save the splash screen to this PNG file")
	sim := flag.Bool("sim", false, "use fake SPI bus and pins")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	f, err := loadFont(*fontName, *ttf, *size)
	if err != nil {
		return err
	}

	var mirrors multiDrawer
	if *term {
		mirrors = append(mirrors, termview.New(&termview.Opts{W: *w, H: *h, Scale: *termScale}))
	}
	var sink *videosink.Display
	if *httpAddr != "" {
		sink = videosink.New(&videosink.Options{Width: *w, Height: *h, Scale: 2})
		mirrors = append(mirrors, sink)
	}

	opts := st7789.Opts{
		W:           *w,
		H:           *h,
		Orientation: st7789.DefaultOrientation,
		Speed:       hz,
		Font:        f,
	}
	if len(mirrors) != 0 {
		opts.Mirror = mirrors
		defer func() {
			if err := mirrors.Halt(); err != nil {
				logrus.WithError(err).Warn("halting mirrors")
			}
		}()
	}

	var p spi.Port
	var dc, rst, cs gpio.PinOut
	var sent byteCounter
	if *sim {
		p = spitest.NewRecordRaw(&sent)
		dc = &gpiotest.Pin{N: "dc", Num: 25}
		rst = &gpiotest.Pin{N: "rst", Num: 27}
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		pc, err := spireg.Open(*spiID)
		if err != nil {
			return err
		}
		defer pc.Close()
		p = pc
		if dc, err = pinByName(*dcName); err != nil {
			return err
		}
		if rst, err = pinByName(*rstName); err != nil {
			return err
		}
		if *csName != "" {
			if cs, err = pinByName(*csName); err != nil {
				return err
			}
		}
	}

	dev, err := st7789.New(p, dc, rst, cs, &opts)
	if err != nil {
		return err
	}
	log := logrus.WithField("device", dev.String())
	if err := dev.Init(); err != nil {
		return err
	}
	defer func() {
		if err := dev.Halt(); err != nil {
			log.WithError(err).Warn("halt")
		}
	}()
	log.Info("panel ready")

	if sink != nil {
		srv := &http.Server{Addr: *httpAddr, Handler: sink}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("http server")
			}
		}()
		defer srv.Close()
		log.WithField("addr", *httpAddr).Info("serving frames")
	}

	drawSplash(dev)
	if err := dev.Flush(); err != nil {
		return err
	}
	if *pngPath != "" {
		if err := snapshot.SavePNG(*pngPath, dev.Image(), &snapshot.Opts{Scale: 2, Caption: dev.String()}); err != nil {
			return err
		}
		log.WithField("path", *pngPath).Info("saved splash screen")
	}

	dev.EnableFrameRateMonitor(*fps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	start := time.Now()
	n := 0
	for ; (*frames == 0 || n < *frames) && ctx.Err() == nil; n++ {
		drawSpinner(dev, n)
		if err := dev.Flush(); err != nil {
			return err
		}
	}
	fields := logrus.Fields{"frames": n, "duration": time.Since(start).Round(time.Millisecond)}
	if *sim {
		fields["bytes"] = sent.n.Load()
	}
	log.WithFields(fields).Info("done")
	return nil
}

func loadFont(name, ttf string, size float64) (glyph.Font, error) {
	if ttf != "" {
		b, err := os.ReadFile(ttf)
		if err != nil {
			return nil, err
		}
		return glyph.ParseTTF(b, size)
	}
	switch strings.ToLower(name) {
	case "basic", "":
		return glyph.Default(), nil
	case "go":
		return glyph.GoRegular(size)
	case "mono":
		return glyph.FromTinyfont(&freemono.Regular9pt7b), nil
	default:
		return nil, fmt.Errorf("unknown font %q", name)
	}
}

func pinByName(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

const (
	spinnerX = 270
	spinnerY = 150
	spinnerR = 30
)

var (
	navy   = rgb565.RGB(0x10, 0x20, 0x50)
	orange = rgb565.RGB(0xFF, 0x80, 0x00)
)

func drawSplash(dev *st7789.Dev) {
	dev.Fill(rgb565.Black)
	b := dev.Bounds()
	dev.RoundedRect(4, 4, b.Dx()-9, b.Dy()-9, 12, navy)
	r := dev.Pill(16, 16, 200, 28, orange)
	dev.DrawText("periph st7789", 16+r, 22, rgb565.Black, &st7789.TextOpts{MaxWidth: 200 - 2*r})
	dev.DrawText("A small rasterizer for RGB565 panels, with wrapped text and arcs.", 16, 60,
		rgb565.White, &st7789.TextOpts{Wrap: true})
	dev.DrawText("italic", 16, 150, rgb565.Yellow, &st7789.TextOpts{Slope: 0.25})
	dev.Arc(spinnerX, spinnerY, spinnerR+6, 0, 360, rgb565.Cyan, false, 2)
}

func drawSpinner(dev *st7789.Dev, n int) {
	dev.Image().FillCircle(spinnerX, spinnerY, spinnerR, navy)
	dev.Arc(spinnerX, spinnerY, spinnerR, float64(n*12), 90, orange, true, 6)
}

// multiDrawer forwards frames to several displays.
type multiDrawer []display.Drawer

func (m multiDrawer) String() string {
	s := make([]string, len(m))
	for i, d := range m {
		s[i] = d.String()
	}
	return strings.Join(s, "+")
}

func (m multiDrawer) Halt() error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.Halt())
	}
	return errors.Join(errs...)
}

func (m multiDrawer) ColorModel() color.Model {
	return rgb565.Model
}

func (m multiDrawer) Bounds() image.Rectangle {
	return m[0].Bounds()
}

func (m multiDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.Draw(r, src, sp))
	}
	return errors.Join(errs...)
}

// byteCounter counts the bytes sent to the simulated bus.
type byteCounter struct {
	n atomic.Int64
}

func (b *byteCounter) Write(p []byte) (int, error) {
	b.n.Add(int64(len(p)))
	return len(p), nil
}
