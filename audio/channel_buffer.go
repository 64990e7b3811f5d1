// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Chunk is a block of deinterleaved frames, one slice per channel, all of
// the same length.
type Chunk [][]float32

// Frames returns the per-channel length of c.
func (c Chunk) Frames() int {
	if len(c) == 0 {
		return 0
	}
	return len(c[0])
}

// TrimBounds is a half-open frame range [Start, End) into a buffer.
type TrimBounds struct {
	Start int
	End   int
}

// Len returns the number of frames inside the bounds.
func (b TrimBounds) Len() int { return b.End - b.Start }

// ChannelBuffer stores deinterleaved float samples. Every channel always
// holds the same number of frames.
//
// Drained frames are skipped with a read offset and the storage is compacted
// once the dead prefix outgrows the live data, so draining a long batch one
// chunk at a time stays linear.
type ChannelBuffer struct {
	data [][]float32
	head int
}

func NewChannelBuffer(channels int) *ChannelBuffer {
	return &ChannelBuffer{data: make([][]float32, channels)}
}

func (b *ChannelBuffer) Channels() int { return len(b.data) }

// Len returns the common per-channel length.
func (b *ChannelBuffer) Len() int {
	if len(b.data) == 0 {
		return 0
	}
	return len(b.data[0]) - b.head
}

// Frames returns a view of the buffered frames. The view is only valid
// until the next mutating call.
func (b *ChannelBuffer) Frames() Chunk {
	view := make(Chunk, len(b.data))
	for c := range b.data {
		view[c] = b.data[c][b.head:]
	}
	return view
}

// Append adds one deinterleaved batch. The batch must have one slice per
// channel and all slices must have the same length.
func (b *ChannelBuffer) Append(batch [][]float32) error {
	if len(batch) == 0 || len(batch) != len(b.data) {
		return fmt.Errorf("%w: batch has %d channels, buffer has %d", ErrShape, len(batch), len(b.data))
	}
	frames := len(batch[0])
	for c := range batch {
		if len(batch[c]) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d", ErrShape, c, len(batch[c]), frames)
		}
	}

	for c := range b.data {
		b.data[c] = append(b.data[c], batch[c]...)
	}
	return nil
}

// AppendInterleaved deinterleaves samples into the buffer. Nothing is
// appended when len(samples) is not a multiple of the channel count.
func (b *ChannelBuffer) AppendInterleaved(samples []float32) error {
	channels := len(b.data)
	if channels == 0 || len(samples)%channels != 0 {
		return fmt.Errorf("%w: %d samples, %d channels", ErrMalformedAudio, len(samples), channels)
	}

	frames := len(samples) / channels
	for c := range b.data {
		b.data[c] = growFloats(b.data[c], frames)
	}
	for f := range frames {
		base := f * channels
		for c := range channels {
			b.data[c] = append(b.data[c], samples[base+c])
		}
	}
	return nil
}

// DrainFront removes the first n frames and returns them as a new Chunk.
func (b *ChannelBuffer) DrainFront(n int) (Chunk, error) {
	if n < 0 || n > b.Len() {
		return nil, fmt.Errorf("%w: need %d frames, have %d", ErrInsufficientData, n, b.Len())
	}

	out := make(Chunk, len(b.data))
	for c := range b.data {
		out[c] = make([]float32, n)
		copy(out[c], b.data[c][b.head:b.head+n])
	}
	b.head += n
	b.compact()

	return out, nil
}

// PadTo appends zeros to every channel until Len() >= n.
func (b *ChannelBuffer) PadTo(n int) {
	missing := n - b.Len()
	if missing <= 0 {
		return
	}
	for c := range b.data {
		b.data[c] = append(b.data[c], make([]float32, missing)...)
	}
}

// Keep discards everything outside bounds.
func (b *ChannelBuffer) Keep(bounds TrimBounds) error {
	if bounds.Start < 0 || bounds.Start > bounds.End || bounds.End > b.Len() {
		return fmt.Errorf("%w: bounds [%d, %d) outside %d frames", ErrShape, bounds.Start, bounds.End, b.Len())
	}

	for c := range b.data {
		b.data[c] = b.data[c][:b.head+bounds.End]
	}
	b.head += bounds.Start
	b.compact()

	return nil
}

// Reset drops all frames but keeps the allocated storage.
func (b *ChannelBuffer) Reset() {
	for c := range b.data {
		b.data[c] = b.data[c][:0]
	}
	b.head = 0
}

func (b *ChannelBuffer) compact() {
	live := b.Len()
	if b.head == 0 || b.head < live {
		return
	}
	for c := range b.data {
		n := copy(b.data[c], b.data[c][b.head:])
		b.data[c] = b.data[c][:n]
	}
	b.head = 0
}

func growFloats(s []float32, n int) []float32 {
	if cap(s)-len(s) >= n {
		return s
	}
	grown := make([]float32, len(s), len(s)+max(n, cap(s)))
	copy(grown, s)
	return grown
}
