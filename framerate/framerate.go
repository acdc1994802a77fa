// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package framerate counts events, typically display flushes, and reports
// how many happened per interval from a background goroutine.
package framerate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Monitor counts ticks and reports them once per Interval while enabled.
//
// Tick is safe to call from any goroutine. The zero value is not usable, use
// New.
type Monitor struct {
	interval time.Duration
	report   func(n uint64)

	count   atomic.Uint64
	enabled atomic.Bool

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// Opts configures a Monitor.
type Opts struct {
	// Interval between reports. Defaults to one second.
	Interval time.Duration
	// Report receives the number of ticks of the last interval. Defaults to
	// LogReport(Logger, Name).
	Report func(n uint64)
	// Logger used by the default reporter. Defaults to the logrus standard
	// logger.
	Logger logrus.FieldLogger
	// Name is logged as the device field by the default reporter.
	Name string
}

// New returns a disabled Monitor.
func New(opts *Opts) *Monitor {
	if opts == nil {
		opts = &Opts{}
	}
	m := &Monitor{interval: opts.Interval, report: opts.Report}
	if m.interval <= 0 {
		m.interval = time.Second
	}
	if m.report == nil {
		l := opts.Logger
		if l == nil {
			l = logrus.StandardLogger()
		}
		m.report = LogReport(l, opts.Name)
	}
	return m
}

// LogReport returns a reporter logging the rate with the field fps, and
// device when name is not empty.
func LogReport(l logrus.FieldLogger, name string) func(n uint64) {
	if name != "" {
		l = l.WithField("device", name)
	}
	return func(n uint64) {
		l.WithField("fps", n).Info("frame rate")
	}
}

// Tick counts one event. It is a no-op while the monitor is disabled.
func (m *Monitor) Tick() {
	if m.enabled.Load() {
		m.count.Add(1)
	}
}

// Enabled reports whether the monitor is running.
func (m *Monitor) Enabled() bool {
	return m.enabled.Load()
}

// Enable starts or stops reporting. Enabling a running monitor or disabling a
// stopped one does nothing.
//
// Disabling does not wait for a report in progress to complete; use Close
// for that.
func (m *Monitor) Enable(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on == (m.stop != nil) {
		return
	}
	if !on {
		m.enabled.Store(false)
		close(m.stop)
		m.stop = nil
		return
	}
	m.count.Store(0)
	m.stop = make(chan struct{})
	m.enabled.Store(true)
	m.wg.Add(1)
	go m.run(m.stop)
}

// Close stops reporting and waits for the reporting goroutine to exit.
func (m *Monitor) Close() error {
	m.Enable(false)
	m.wg.Wait()
	return nil
}

func (m *Monitor) run(stop <-chan struct{}) {
	defer m.wg.Done()
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.report(m.count.Swap(0))
		}
	}
}
