// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"fmt"
	"net/url"
	"strconv"
)

type ImageFormat int

const (
	PNG ImageFormat = iota
	JPEG

	// DefaultFormat is the format used when not set explicitly in options or
	// as a URL parameter.
	DefaultFormat = PNG
)

// maxScale bounds the "scale" URL parameter.
const maxScale = 8

func (f ImageFormat) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return fmt.Sprint(int(f))
	}
}

func (f ImageFormat) mimeType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}

	return "application/octet-stream"
}

// ImageFormatFromString returns the ImageFormat value for the given format
// abbreviation.
func ImageFormatFromString(value string) (ImageFormat, error) {
	switch value {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}

	return DefaultFormat, fmt.Errorf("unrecognized image format %q", value)
}

// imageConfig is what a client asked for. Encoded frames are cached per
// configuration.
type imageConfig struct {
	format ImageFormat
	scale  int
}

// requestConfig is the parsed query of a request.
type requestConfig struct {
	imageConfig
	once bool
}

func (d *Display) configFromQuery(values url.Values) (requestConfig, error) {
	cfg := requestConfig{
		imageConfig: imageConfig{
			format: d.defaultFormat,
			scale:  d.defaultScale,
		},
	}

	if value := values.Get("format"); value != "" {
		format, err := ImageFormatFromString(value)
		if err != nil {
			return requestConfig{}, err
		}
		cfg.format = format
	}

	if value := values.Get("scale"); value != "" {
		scale, err := strconv.Atoi(value)
		if err != nil || scale < 1 || scale > maxScale {
			return requestConfig{}, fmt.Errorf("scale must be between 1 and %d, got %q", maxScale, value)
		}
		cfg.scale = scale
	}

	if value := values.Get("once"); value != "" {
		once, err := strconv.ParseBool(value)
		if err != nil {
			return requestConfig{}, fmt.Errorf("invalid once parameter %q", value)
		}
		cfg.once = once
	}

	return cfg, nil
}
