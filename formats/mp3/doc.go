// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 audio with github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, so Source.Channels is 2 for every
// input, mono files included. Wrap the source in audio.NewMonoMixer when a
// single channel is wanted:
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    // errors.Is(err, mp3.ErrNotMP3File)
//	}
//	mono := audio.NewMonoMixer(src)
//
// ReadSamples returns whole frames only; bytes of a frame split between two
// decoder reads are held until the next call.
package mp3
