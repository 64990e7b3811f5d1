// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors_Distinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrInvalidDstSize,
		ErrDecode,
		ErrShape,
		ErrInsufficientData,
		ErrResampler,
		ErrUnsupportedRatio,
		ErrMalformedAudio,
		ErrPipelineClosed,
		ErrInvalidSpec,
		ErrUnknownFormat,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = true, want false", a, b)
			}
		}
	}
}

func TestStageError(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("%w: block of 12 frames, want 441", ErrResampler)
	err := error(&StageError{Stage: StageResampling, Frame: 4410, Err: cause})

	if !errors.Is(err, ErrResampler) {
		t.Error("errors.Is(StageError, ErrResampler) = false, want true")
	}

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatal("errors.As(*StageError) = false")
	}
	if se.Stage != StageResampling || se.Frame != 4410 {
		t.Errorf("StageError = {%v, %d}, want {resampling, 4410}", se.Stage, se.Frame)
	}

	want := "resampling at frame 4410: resampler failed: block of 12 frames, want 441"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrInvalidDstSize_Wrapping(t *testing.T) {
	t.Parallel()

	wrappedErr := errors.Join(ErrInvalidDstSize, errors.New("additional context"))
	if !errors.Is(wrappedErr, ErrInvalidDstSize) {
		t.Error("errors.Is() failed for wrapped ErrInvalidDstSize")
	}
}
