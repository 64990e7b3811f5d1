// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

// BlockResampler feeds a BlockConverter whole chunks out of a ChannelBuffer
// and applies the tail policy to the last, incomplete chunk.
type BlockResampler struct {
	conv    BlockConverter
	srcRate int64
	dstRate int64

	consumed int64
	flushed  bool
}

func NewBlockResampler(conv BlockConverter, srcRate, dstRate int) (*BlockResampler, error) {
	if conv == nil {
		return nil, fmt.Errorf("%w: nil converter", ErrResampler)
	}
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %w: %d Hz to %d Hz", ErrResampler, ErrUnsupportedRatio, srcRate, dstRate)
	}

	return &BlockResampler{
		conv:    conv,
		srcRate: int64(srcRate),
		dstRate: int64(dstRate),
	}, nil
}

// RequiredInputLength is the exact frame count the next Process call needs.
func (r *BlockResampler) RequiredInputLength() int { return r.conv.InputFramesNext() }

// Consumed returns the number of real (non-padding) input frames processed.
func (r *BlockResampler) Consumed() int64 { return r.consumed }

// Process runs one chunk through the converter. The chunk must hold exactly
// RequiredInputLength frames on every channel.
func (r *BlockResampler) Process(chunk Chunk) (Chunk, error) {
	need := r.conv.InputFramesNext()
	if len(chunk) != r.conv.Channels() || chunk.Frames() != need {
		return nil, fmt.Errorf("%w: block of %d frames on %d channels, want %d on %d",
			ErrResampler, chunk.Frames(), len(chunk), need, r.conv.Channels())
	}

	wantOut := r.conv.OutputFramesNext()
	out, err := r.conv.Process(chunk)
	if err != nil {
		if errors.Is(err, ErrResampler) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrResampler, err)
	}
	if len(out) != len(chunk) || out.Frames() != wantOut {
		return nil, fmt.Errorf("%w: converter returned %d frames on %d channels, want %d",
			ErrResampler, out.Frames(), len(out), wantOut)
	}

	return out, nil
}

// Drain processes complete chunks from buf while enough frames are buffered
// and passes every output chunk to emit.
func (r *BlockResampler) Drain(buf *ChannelBuffer, emit func(Chunk) error) error {
	for {
		need := r.conv.InputFramesNext()
		chunk, err := buf.DrainFront(need)
		if errors.Is(err, ErrInsufficientData) {
			return nil
		}
		if err != nil {
			return err
		}

		out, err := r.Process(chunk)
		if err != nil {
			return err
		}
		r.consumed += int64(need)

		if err := emit(out); err != nil {
			return err
		}
	}
}

// Flush drains buf and then applies the tail policy once: the remainder is
// zero-padded to a full chunk and the converter output is cut to
// floor(remaining*dstRate/srcRate) frames. Later calls do nothing.
func (r *BlockResampler) Flush(buf *ChannelBuffer, emit func(Chunk) error) error {
	if r.flushed {
		return nil
	}
	r.flushed = true

	if err := r.Drain(buf, emit); err != nil {
		return err
	}

	remaining := buf.Len()
	if remaining == 0 {
		return nil
	}

	need := r.conv.InputFramesNext()
	buf.PadTo(need)
	chunk, err := buf.DrainFront(need)
	if err != nil {
		return err
	}

	out, err := r.Process(chunk)
	if err != nil {
		return err
	}
	r.consumed += int64(remaining)

	keep := min(int64(out.Frames()), int64(remaining)*r.dstRate/r.srcRate)
	if keep == 0 {
		return nil
	}
	for c := range out {
		out[c] = out[c][:keep]
	}

	return emit(out)
}
