// SPDX-License-Identifier: EPL-2.0

package audiotest

// Segment is a run of frames in a synthetic signal.
type Segment struct {
	Frames int
	Amp    float32
}

// Silence is n zero frames.
func Silence(n int) Segment { return Segment{Frames: n} }

// Tone is n frames of a square wave at amplitude 0.5. Every frame is above
// any threshold below 0.5, unlike a sine which crosses zero.
func Tone(n int) Segment { return Segment{Frames: n, Amp: 0.5} }

// Mono renders segs into one channel.
func Mono(segs ...Segment) []float32 {
	var out []float32
	for _, s := range segs {
		for i := range s.Frames {
			v := s.Amp
			if i%2 == 1 {
				v = -v
			}
			out = append(out, v)
		}
	}
	return out
}

// Deinterleaved renders segs on every channel, scaling channel c by 1/(c+1)
// so channels are distinguishable.
func Deinterleaved(channels int, segs ...Segment) [][]float32 {
	mono := Mono(segs...)
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, len(mono))
		scale := 1 / float32(c+1)
		for i, v := range mono {
			out[c][i] = v * scale
		}
	}
	return out
}

// Interleave flattens deinterleaved frames.
func Interleave(frames [][]float32) []float32 {
	if len(frames) == 0 {
		return nil
	}
	out := make([]float32, 0, len(frames)*len(frames[0]))
	for i := range frames[0] {
		for c := range frames {
			out = append(out, frames[c][i])
		}
	}
	return out
}

// Split cuts deinterleaved frames into batches of at most size frames.
func Split(frames [][]float32, size int) [][][]float32 {
	if len(frames) == 0 {
		return nil
	}
	var out [][][]float32
	for start := 0; start < len(frames[0]); start += size {
		end := min(start+size, len(frames[0]))
		batch := make([][]float32, len(frames))
		for c := range frames {
			batch[c] = frames[c][start:end]
		}
		out = append(out, batch)
	}
	return out
}
