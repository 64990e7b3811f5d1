// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer downmixes a Source to one channel by averaging each frame.
// Mono sources are passed through unchanged.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 8192),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("close mixed source: %w", err)
	}
	return nil
}

// ReadSamples fills dst with mono frames and returns the frame count.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) * channels
	if cap(m.tmp) < need {
		m.tmp = make([]float32, max(need, 8192))
	}

	n, err := m.src.ReadSamples(m.tmp[:need])
	frames := n / channels
	if frames > 0 {
		mixDown(dst[:frames], m.tmp[:frames*channels], channels)
	}

	return frames, err
}

func mixDown(dst, src []float32, channels int) {
	switch channels {
	case 2:
		for f := range dst {
			dst[f] = (src[2*f] + src[2*f+1]) * 0.5
		}
	case 4:
		for f := range dst {
			i := 4 * f
			dst[f] = (src[i] + src[i+1] + src[i+2] + src[i+3]) * 0.25
		}
	default:
		inv := 1 / float32(channels)
		for f := range dst {
			var sum float32
			for _, v := range src[f*channels : (f+1)*channels] {
				sum += v
			}
			dst[f] = sum * inv
		}
	}
}
