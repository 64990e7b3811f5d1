// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides sources, sinks and signal builders for tests.
package audiotest

import (
	"io"
	"math"
)

// MockSource generates audio from a waveform function. It implements
// audio.Source.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	generated  int
	waveform   func(frame, channel int) float32

	// MaxRead caps the frames returned by one ReadSamples call, which
	// simulates a decoder delivering small packets. Zero means no cap.
	MaxRead int

	failAt int
	err    error
	closed bool
}

// NewMockSource returns a source of frames frames per channel.
func NewMockSource(sampleRate, channels, frames int, waveform func(frame, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return 0 })
}

func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(0.5 * math.Sin(2*math.Pi*frequency*t))
	})
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

// NewSegmentSource plays the given segments on every channel.
func NewSegmentSource(sampleRate, channels int, segs ...Segment) *MockSource {
	samples := Mono(segs...)
	return NewMockSource(sampleRate, channels, len(samples), func(frame, _ int) float32 {
		return samples[frame]
	})
}

// FailAfter makes ReadSamples return err once frame has been generated.
func (m *MockSource) FailAfter(frame int, err error) *MockSource {
	m.failAt = frame
	m.err = err
	return m
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the source.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.err != nil && m.generated >= m.failAt {
		return 0, m.err
	}
	if m.generated >= m.frames {
		return 0, io.EOF
	}

	limit := m.frames
	if m.err != nil {
		limit = min(limit, m.failAt)
	}
	n := min(len(dst)/m.channels, limit-m.generated)
	if m.MaxRead > 0 {
		n = min(n, m.MaxRead)
	}

	for f := range n {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}
	m.generated += n

	if m.generated >= m.frames {
		return n * m.channels, io.EOF
	}
	return n * m.channels, nil
}
