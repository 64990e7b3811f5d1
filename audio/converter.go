// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"

	"github.com/ik5/audconv/utils"
)

// BlockConverter is a fixed-ratio sample-rate converter that works on whole
// blocks of deinterleaved frames.
//
// Process must be called with exactly InputFramesNext() frames per channel
// and returns OutputFramesNext() frames per channel. Converters keep state
// between calls, so blocks must be passed in stream order.
type BlockConverter interface {
	Channels() int
	InputFramesNext() int
	OutputFramesNext() int
	Process(in Chunk) (Chunk, error)
}

// ConverterFactory builds a BlockConverter for one conversion.
type ConverterFactory func(srcRate, dstRate, blockSize, channels int) (BlockConverter, error)

// FixedResamplerDelay is the latency of FixedResampler in source frames.
const FixedResamplerDelay = 2

const (
	history      = FixedResamplerDelay + 1
	maxRatio     = 256
	lowPassAlpha = 0.5
)

// FixedResampler converts between two rates with fixed-size input and output
// blocks using Catmull-Rom cubic interpolation.
//
// The rate ratio is reduced to out/in; every block holds k*in input frames
// and yields k*out output frames, where k is chosen so the input block is
// close to the nominal block size. Output positions are computed with
// integer arithmetic, so long streams do not drift. A one-pole low-pass
// runs on the input when downsampling.
type FixedResampler struct {
	channels int
	in       int64
	out      int64
	blockIn  int
	blockOut int

	useFilter   bool
	filterState []float32

	// carry holds the last frames of the previous block per channel.
	carry [][]float32
	ext   []float32
}

var _ BlockConverter = (*FixedResampler)(nil)

func NewFixedResampler(srcRate, dstRate, blockSize, channels int) (*FixedResampler, error) {
	if srcRate <= 0 || dstRate <= 0 || channels <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("%w: %w: src=%d dst=%d block=%d channels=%d",
			ErrResampler, ErrUnsupportedRatio, srcRate, dstRate, blockSize, channels)
	}
	if srcRate > dstRate*maxRatio || dstRate > srcRate*maxRatio {
		return nil, fmt.Errorf("%w: %w: %d Hz to %d Hz", ErrResampler, ErrUnsupportedRatio, srcRate, dstRate)
	}

	g := gcd(srcRate, dstRate)
	in, out := srcRate/g, dstRate/g

	k := (blockSize + in/2) / in
	if k < 1 {
		k = 1
	}

	r := &FixedResampler{
		channels:    channels,
		in:          int64(in),
		out:         int64(out),
		blockIn:     k * in,
		blockOut:    k * out,
		useFilter:   srcRate > dstRate,
		filterState: make([]float32, channels),
		carry:       make([][]float32, channels),
		ext:         make([]float32, k*in+history),
	}
	for c := range r.carry {
		r.carry[c] = make([]float32, history)
	}

	return r, nil
}

// DefaultConverterFactory builds FixedResampler instances.
func DefaultConverterFactory(srcRate, dstRate, blockSize, channels int) (BlockConverter, error) {
	r, err := NewFixedResampler(srcRate, dstRate, blockSize, channels)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FixedResampler) Channels() int         { return r.channels }
func (r *FixedResampler) InputFramesNext() int  { return r.blockIn }
func (r *FixedResampler) OutputFramesNext() int { return r.blockOut }

func (r *FixedResampler) Process(in Chunk) (Chunk, error) {
	if len(in) != r.channels {
		return nil, fmt.Errorf("%w: malformed block with %d channels, want %d", ErrResampler, len(in), r.channels)
	}
	for c := range in {
		if len(in[c]) != r.blockIn {
			return nil, fmt.Errorf("%w: malformed block, channel %d has %d frames, want %d",
				ErrResampler, c, len(in[c]), r.blockIn)
		}
	}

	out := make(Chunk, r.channels)
	for c := range in {
		// ext = carry ++ (filtered) block. Output frame j sits at ext position
		// 1 + j*in/out, which keeps every tap inside ext.
		copy(r.ext, r.carry[c])
		block := r.ext[history:]
		if r.useFilter {
			state := r.filterState[c]
			for i, x := range in[c] {
				state = utils.LowPass(state, x, lowPassAlpha)
				block[i] = state
			}
			r.filterState[c] = state
		} else {
			copy(block, in[c])
		}

		dst := make([]float32, r.blockOut)
		for j := range dst {
			num := int64(j) * r.in
			i := 1 + int(num/r.out)
			frac := float32(num%r.out) / float32(r.out)
			dst[j] = utils.CubicInterpolate(r.ext[i-1], r.ext[i], r.ext[i+1], r.ext[i+2], frac)
		}
		out[c] = dst

		copy(r.carry[c], r.ext[len(r.ext)-history:])
	}

	return out, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
