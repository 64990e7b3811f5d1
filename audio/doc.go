// SPDX-License-Identifier: EPL-2.0

// Package audio implements the resample-and-trim pipeline and the decoder
// plumbing around it.
//
// The building blocks are:
//   - Source and Decoder for audio input, with a Registry that probes the
//     container of an input before picking a decoder
//   - ChannelBuffer, a deinterleaved float store that is drained in chunks
//   - BlockConverter and BlockResampler for fixed-block rate conversion
//   - SilenceTrimmer for leading and trailing silence
//   - Pipeline, which ties them together and writes int16 frames to a Sink
//   - MonoMixer for downmixing
//
// # Pipeline
//
// A Pipeline is built for one conversion and fed either in one batch or one
// packet at a time:
//
//	p, err := audio.NewPipeline(audio.AudioSpec{
//	    Channels:   src.Channels(),
//	    SourceRate: src.SampleRate(),
//	    TargetRate: 16000,
//	}, audio.DefaultConfig(), sink)
//	if err != nil {
//	    return err
//	}
//	return p.Run(src)
//
// Both cadences give the same output. When trimming runs before resampling
// the whole input is held until Finish; otherwise complete converter blocks
// are processed as soon as they are buffered.
//
// # Tail policy
//
// The converter only accepts whole blocks. The last, partial block is padded
// with zeros and its output is cut to floor(remaining*target/source) frames,
// so the output length follows the real input length.
//
// # Silence trimming
//
// Two trimmers exist and are chosen with TrimConfig.Mode. TrimHysteresis
// ignores bursts shorter than MinActiveRun frames at both ends. TrimTrailing
// only cuts the end, right after the last frame above the threshold plus the
// guard.
//
// # Sample Format
//
// Audio samples are represented as float32 in the range [-1.0, 1.0]:
//   - 0.0 represents silence
//   - 1.0 represents maximum positive amplitude
//   - -1.0 represents maximum negative amplitude
//
// Output samples are quantized with utils.Quantize (scale 32768, no
// clamping) unless Config.Clamp is set.
//
// # Error Handling
//
// Sources return io.EOF when no more data is available. Pipeline failures
// are returned as *StageError, carrying the stage and input frame, and wrap
// one of the package sentinels:
//
//	err := p.Run(src)
//	var se *audio.StageError
//	if errors.As(err, &se) {
//	    log.Printf("failed while %s at frame %d", se.Stage, se.Frame)
//	}
//	if errors.Is(err, audio.ErrMalformedAudio) {
//	    // upstream decoder produced a partial frame
//	}
//
// After Finish or a failure every call returns ErrPipelineClosed and the sink
// has either been finalized or aborted.
package audio
