// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"mime"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/sirupsen/logrus"
)

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

func (d *Display) bufferChangedLocked() {
	for cfg, buffer := range d.snapshot {
		if buffer != nil {
			//lint:ignore SA6002 buffer is []byte and thus pointer-like
			bufferPool.Put(buffer)
		}

		delete(d.snapshot, cfg)
	}

	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

func (d *Display) terminateClientsLocked() {
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
}

// grabSnapshot returns a copy of the encoded frame and its sequence number.
// The copy must be returned to bufferPool.
func (d *Display) grabSnapshot(cfg imageConfig) ([]byte, uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	encoded, ok := d.snapshot[cfg]
	if !ok {
		var err error
		if encoded, err = d.encodeBufferLocked(cfg); err != nil {
			return nil, 0, err
		}
		d.snapshot[cfg] = encoded
	}

	return append(bufferPool.Get().([]byte)[:0], encoded...), d.seq, nil
}

// ServeHTTP handles HTTP GET requests and sends a stream of images
// representing the frame in response. The display options control the
// default format and scale; clients can override them with the "format"
// ("?format=png", "?format=jpeg") and "scale" ("?scale=3") parameters.
// "?once=1" returns the current frame as a plain image.
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		logrus.WithError(err).Warn("videosink: closing request body failed")
	}

	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	cfg, err := d.configFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if cfg.once {
		d.serveOnce(w, cfg.imageConfig)
		return
	}

	pw := newPartWriter(w)

	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": pw.boundary,
		}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}

	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
	}()

	partHeaders := make(textproto.MIMEHeader)
	partHeaders.Set("Content-Type", mime.FormatMediaType(cfg.format.mimeType(), nil))
	partHeaders.Set("Content-Transfer-Encoding", "binary")

	for {
		payload, seq, err := d.grabSnapshot(cfg.imageConfig)
		if err != nil {
			logrus.WithError(err).Error("videosink: encoding frame failed")
			return
		}
		partHeaders.Set("X-Frame", strconv.FormatUint(seq, 10))
		err = pw.writeFrame(partHeaders, payload)

		//lint:ignore SA6002 buffer is []byte and thus pointer-like
		bufferPool.Put(payload)

		if err != nil {
			// Errors cause the request to be silently terminated. There's no
			// good way to deliver an error message to the client within an
			// image stream.
			return
		}

		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (d *Display) serveOnce(w http.ResponseWriter, cfg imageConfig) {
	payload, seq, err := d.grabSnapshot(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	//lint:ignore SA6002 buffer is []byte and thus pointer-like
	defer bufferPool.Put(payload)

	w.Header().Set("Content-Type", cfg.format.mimeType())
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Header().Set("X-Frame", strconv.FormatUint(seq, 10))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(payload); err != nil {
		logrus.WithError(err).Debug("videosink: writing snapshot failed")
	}
}
