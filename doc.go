// SPDX-License-Identifier: EPL-2.0

// Package audconv converts audio files to 16-bit PCM WAV at a fixed sample
// rate, cutting leading and trailing silence on the way.
//
// The package is a thin layer over the audio pipeline: it probes the input
// container, picks a decoder from formats/*, optionally downmixes to mono,
// and runs an audio.Pipeline into a WAV sink.
//
// # Supported Formats
//
// Input:
//   - WAV, integer PCM 16/24/32-bit, via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF via formats/aiff
//
// Output is always 16-bit integer PCM WAV with the input channel count, or
// mono when downmixing is enabled.
//
// # Quick Start
//
//	res, err := audconv.NewConverter("out.wav", 16000).
//	    WithInputPath("in.mp3").
//	    Convert(ctx)
//	if err != nil {
//	    // errors.Is(err, audio.ErrUnknownFormat), audio.ErrDecode, ...
//	}
//	fmt.Println(res.Stats.OutputFrames)
//
// In-memory input is converted with ConvertBytes (written to the output
// path) or ConvertTo (written to any io.Writer).
//
// # Batches
//
// ConvertAll runs a set of converters with bounded parallelism. Each
// conversion owns its pipeline, so nothing is shared between them.
//
//	results, err := audconv.ConvertAll(ctx, converters, audconv.BatchOptions{Limit: 4})
//
// # Configuration
//
// WithConfig takes an audio.Config: trimming mode and order, silence
// threshold, guard, block size, clamping and an audio.Observer for logs or
// metrics. The defaults trim with hysteresis before resampling.
//
// # Tracing
//
// Every conversion runs in an OpenTelemetry span named "audconv.Convert"
// taken from the global tracer provider. Nothing is exported unless the
// application installs a provider.
package audconv
