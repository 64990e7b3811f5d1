// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"
	"testing"
)

func TestMonoMixer_Mix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		value    func(channel int) float32
		want     float32
	}{
		{name: "mono passthrough", channels: 1, value: func(int) float32 { return 0.5 }, want: 0.5},
		{name: "stereo", channels: 2, value: func(c int) float32 { return 0.4 + 0.2*float32(c) }, want: 0.5},
		{name: "quad", channels: 4, value: func(c int) float32 { return 0.1 * float32(c) }, want: 0.15},
		{name: "three channels", channels: 3, value: func(c int) float32 { return float32(c) - 1 }, want: 0},
		{name: "eight channels", channels: 8, value: func(c int) float32 { return 0.125 * float32(c%2) }, want: 0.0625},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newMockSource(8000, tt.channels, 100, func(_, c int) float32 { return tt.value(c) })
			mixer := NewMonoMixer(src)
			if mixer.Channels() != 1 {
				t.Errorf("Channels() = %d, want 1", mixer.Channels())
			}

			buf := make([]float32, 10)
			n, err := mixer.ReadSamples(buf)
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}
			if n != 10 {
				t.Fatalf("ReadSamples() n = %d, want 10", n)
			}
			for i := range n {
				if math.Abs(float64(buf[i]-tt.want)) > 1e-6 {
					t.Errorf("buf[%d] = %v, want %v", i, buf[i], tt.want)
				}
			}
		})
	}
}

func TestMonoMixer_EOF(t *testing.T) {
	t.Parallel()

	mixer := NewMonoMixer(newSilentSource(8000, 2, 5))
	buf := make([]float32, 10)

	n, err := mixer.ReadSamples(buf)
	if !errors.Is(err, io.EOF) || n != 5 {
		t.Errorf("ReadSamples() = %d, %v, want 5, io.EOF", n, err)
	}

	n, err = mixer.ReadSamples(buf)
	if !errors.Is(err, io.EOF) || n != 0 {
		t.Errorf("second ReadSamples() = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestMonoMixer_EmptyBuffer(t *testing.T) {
	t.Parallel()

	mixer := NewMonoMixer(newSilentSource(8000, 2, 100))
	n, err := mixer.ReadSamples(nil)
	if err != nil || n != 0 {
		t.Errorf("ReadSamples(nil) = %d, %v, want 0, nil", n, err)
	}
}

func TestMonoMixer_LargeBuffer(t *testing.T) {
	t.Parallel()

	mixer := NewMonoMixer(newSineSource(8000, 2, 8000, 440.0))
	buf := make([]float32, 16384)

	n, err := mixer.ReadSamples(buf)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("ReadSamples() error = %v, want io.EOF", err)
	}
	if n != 8000 {
		t.Errorf("ReadSamples() n = %d, want 8000", n)
	}
}

func TestMonoMixer_MetadataAndClose(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 2, 100)
	mixer := NewMonoMixer(src)

	if mixer.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", mixer.SampleRate())
	}
	if mixer.BufSize() != src.BufSize() {
		t.Errorf("BufSize() = %d, want %d", mixer.BufSize(), src.BufSize())
	}
	if err := mixer.Close(); err != nil || !src.closed {
		t.Errorf("Close() = %v, source closed = %v", err, src.closed)
	}
}

// TestMonoMixer_FeedsPipeline runs a downmixed stereo source through a
// pipeline with a mono spec.
func TestMonoMixer_FeedsPipeline(t *testing.T) {
	t.Parallel()

	src := newMockSource(16000, 2, 1000, func(_, c int) float32 {
		if c == 0 {
			return 0.25
		}
		return 0.75
	})
	mixer := NewMonoMixer(src)

	sink := &countingSink{}
	cfg := DefaultConfig()
	cfg.Trim.Mode = TrimNone
	p, err := NewPipeline(AudioSpec{Channels: 1, SourceRate: 16000, TargetRate: 16000}, cfg, sink)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(mixer); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sink.samples) != 1000 || sink.samples[0] != 16384 {
		t.Errorf("sink got %d samples, first %v; want 1000 of 16384", len(sink.samples), sink.samples[:1])
	}
}

type countingSink struct {
	samples []int16
}

func (s *countingSink) Open(AudioSpec) error          { return nil }
func (s *countingSink) WriteFrames(pcm []int16) error { s.samples = append(s.samples, pcm...); return nil }
func (s *countingSink) Finalize() error               { return nil }
func (s *countingSink) Abort() error                  { s.samples = nil; return nil }

func BenchmarkMonoMixer_StereoToMono(b *testing.B) {
	src := newSineSource(8000, 2, 100000, 440.0)
	mixer := NewMonoMixer(src)
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		src.Reset()
		for {
			_, err := mixer.ReadSamples(buf)
			if err == io.EOF {
				break
			}
		}
	}
}

func BenchmarkMonoMixer_ManyChannels(b *testing.B) {
	src := newConstantSource(8000, 16, 100000, 0.0625)
	mixer := NewMonoMixer(src)
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		src.Reset()
		for {
			_, err := mixer.ReadSamples(buf)
			if err == io.EOF {
				break
			}
		}
	}
}

func TestMonoMixer_ZeroAllocs(t *testing.T) {
	src := newSineSource(8000, 2, 100000, 440.0)
	mixer := NewMonoMixer(src)
	buf := make([]float32, 4096)

	_, _ = mixer.ReadSamples(buf)

	allocs := testing.AllocsPerRun(100, func() {
		src.Reset()
		_, _ = mixer.ReadSamples(buf)
	})
	if allocs > 0 {
		t.Errorf("ReadSamples() allocated %v times, want 0", allocs)
	}
}
