// SPDX-License-Identifier: EPL-2.0

package audconv

import (
	"fmt"

	"github.com/ik5/audconv/audio"
)

// ResampleToMono16 downmixes src to mono, resamples it to targetRate and
// returns the whole result as 16-bit PCM. Silence is kept; use a Converter
// or an audio.Pipeline for trimming.
//
// Example:
//
//	src, _ := wav.Decoder{}.Decode(file)
//	pcm16, rate, err := audconv.ResampleToMono16(src, 8000)
func ResampleToMono16(src audio.Source, targetRate int) ([]int16, int, error) {
	if targetRate <= 0 {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidTargetRate, targetRate)
	}

	mono := audio.NewMonoMixer(src)
	cfg := audio.DefaultConfig()
	cfg.Trim.Mode = audio.TrimNone

	sink := &pcmSink{}
	p, err := audio.NewPipeline(audio.AudioSpec{
		Channels:   1,
		SourceRate: mono.SampleRate(),
		TargetRate: targetRate,
	}, cfg, sink)
	if err != nil {
		return nil, 0, err
	}
	if err := p.Run(mono); err != nil {
		return nil, 0, err
	}

	return sink.samples, targetRate, nil
}

// pcmSink collects the output in memory. The initial capacity is one second
// of audio.
type pcmSink struct {
	samples []int16
}

func (s *pcmSink) Open(spec audio.AudioSpec) error {
	s.samples = make([]int16, 0, spec.TargetRate*spec.Channels)
	return nil
}

func (s *pcmSink) WriteFrames(samples []int16) error {
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *pcmSink) Finalize() error { return nil }

func (s *pcmSink) Abort() error {
	s.samples = nil
	return nil
}
