// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrDecode wraps failures surfaced by a decoder Source.
	ErrDecode = errors.New("decode failed")

	// ErrShape reports a channel count or per-channel length mismatch.
	ErrShape = errors.New("channel shape mismatch")

	// ErrInsufficientData tells the chunk loop to wait for more input or to
	// apply the tail policy. It never reaches the caller of a Pipeline.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrResampler reports a block the converter rejected.
	ErrResampler = errors.New("resampler failed")

	// ErrUnsupportedRatio is returned (wrapped in ErrResampler) when a
	// converter cannot handle the requested rates.
	ErrUnsupportedRatio = errors.New("unsupported resampling ratio")

	// ErrMalformedAudio reports a flat sample count that is not a multiple of
	// the channel count.
	ErrMalformedAudio = errors.New("sample count not divisible by channel count")

	// ErrPipelineClosed is returned for any use of a Pipeline after it was
	// finalized or failed.
	ErrPipelineClosed = errors.New("pipeline closed")

	// ErrInvalidSpec reports an AudioSpec or Config that cannot be used.
	ErrInvalidSpec = errors.New("invalid audio spec")

	// ErrUnknownFormat is returned when no decoder matches an input.
	ErrUnknownFormat = errors.New("unknown audio format")
)

// StageError carries the pipeline stage and the input frame index at which a
// fatal error happened.
type StageError struct {
	Stage Stage
	Frame int64
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s at frame %d: %v", e.Stage, e.Frame, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
