// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio with
// github.com/jfreymuth/oggvorbis.
//
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    // errors.Is(err, vorbis.ErrNotVorbisFile)
//	}
//
// Channel count and sample rate come from the stream header. ReadSamples
// only asks the decoder for whole frames, so a dst whose length is not a
// multiple of the channel count is used up to the last whole frame.
package vorbis
