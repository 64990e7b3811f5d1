// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrOnlyPCMSupported     = errors.New("only integer PCM WAV supported")
	ErrUnsupportedBitDepth  = errors.New("unsupported WAV bit depth")
	ErrUnsupportedWavChunks = errors.New("unsupported WAV chunks")

	// ErrSinkState reports a sink method called out of order, such as
	// WriteFrames before Open or after Finalize.
	ErrSinkState = errors.New("wav sink used out of order")
)
