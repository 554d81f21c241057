// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package raster - decide whether bytes decode as a usable image
//
// The verdict is deliberately weak: the bytes must decode as some
// raster with a non-zero pixel area.  Colour depth, orientation and
// agreement with the transcription are not checked; downstream
// training consumers rely on this exact permissiveness.
package raster

import (
	"bytes"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Valid - the validity verdict for one encoded image
//
// fails closed: no bytes means invalid
func Valid(data []byte) bool {
	if 0 == len(data) {
		return false
	}

	// a full decode: a plausible header over a truncated or garbled
	// body must not pass; images are read as grayscale by consumers
	// but the decoded colour model is irrelevant to the verdict
	img, _, err := image.Decode(bytes.NewReader(data))
	if nil != err {
		return false
	}

	bounds := img.Bounds()
	return bounds.Dx()*bounds.Dy() != 0
}
