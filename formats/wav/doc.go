// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes PCM WAV files.
//
// Decoding and file output go through github.com/go-audio/wav. WriteWAV16
// writes the canonical 44 byte header by hand so it can target writers that
// cannot seek.
//
// # Decoding
//
//	f, _ := os.Open("input.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    // errors.Is(err, wav.ErrNotWavFile), wav.ErrUnsupportedBitDepth, ...
//	}
//
// Integer PCM with 16, 24 or 32 bit samples is accepted, with any channel
// count and sample rate. Samples come out as float32 in [-1, 1) and
// ReadSamples always returns whole frames. Readers that cannot seek are
// read into memory first.
//
// # Writing
//
// FileSink and StreamSink implement audio.Sink:
//
//	sink := wav.NewFileSink("out.wav")
//	p, err := audio.NewPipeline(spec, audio.DefaultConfig(), sink)
//
// FileSink writes to a temporary file next to the target and renames it on
// Finalize; Abort removes it. StreamSink holds the samples in memory and
// writes the whole file with WriteWAV16 on Finalize.
package wav
