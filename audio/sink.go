// SPDX-License-Identifier: EPL-2.0

package audio

// Sink receives the quantized output of a Pipeline.
//
// Open is called once with the conversion spec before any frames; output
// is written at spec.TargetRate with spec.Channels channels. WriteFrames
// gets interleaved int16 samples, always a whole number of frames; the slice
// is reused by the caller and must not be retained. Finalize is called
// exactly once after the last frame and must leave a complete, readable
// output. Abort is called instead of Finalize when the conversion fails and
// must discard anything written so far.
type Sink interface {
	Open(spec AudioSpec) error
	WriteFrames(samples []int16) error
	Finalize() error
	Abort() error
}
