// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF files with
// github.com/go-audio/aiff.
//
// Samples of 8, 16, 24 or 32 bits are scaled to float32 in [-1, 1).
// go-audio needs to seek, so readers without Seek are read into memory
// first.
//
//	src, err := aiff.Decoder{}.Decode(f)
//	switch {
//	case errors.Is(err, aiff.ErrNotAiffFile):
//	case errors.Is(err, aiff.ErrUnsupportedBitDepth):
//	}
package aiff
