// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{ErrNotWavFile, "not a WAV file"},
		{ErrUnsupportedWavLayout, "unsupported WAV layout"},
		{ErrOnlyPCMSupported, "only integer PCM WAV supported"},
		{ErrUnsupportedBitDepth, "unsupported WAV bit depth"},
		{ErrUnsupportedWavChunks, "unsupported WAV chunks"},
		{ErrSinkState, "wav sink used out of order"},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
		}
	}
}

func TestErrors_Uniqueness(t *testing.T) {
	t.Parallel()

	errs := []error{
		ErrNotWavFile,
		ErrUnsupportedWavLayout,
		ErrOnlyPCMSupported,
		ErrUnsupportedBitDepth,
		ErrUnsupportedWavChunks,
		ErrSinkState,
	}

	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = true, want false", a, b)
			}
		}
	}
}

func TestErrors_Wrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("decode input.wav: %w", ErrUnsupportedBitDepth)
	if !errors.Is(wrapped, ErrUnsupportedBitDepth) {
		t.Error("wrapped error does not match ErrUnsupportedBitDepth")
	}
}
