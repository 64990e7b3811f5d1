// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audconv/audio"
)

const defaultBufFrames = 4096

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return defaultBufFrames * s.channels }

func (s *source) ReadSamples(dst []float32) (int, error) {
	// oggvorbis wants a whole number of frames and reports float values,
	// not frames.
	dst = dst[:len(dst)-len(dst)%s.channels]
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst)
	n -= n % s.channels

	switch {
	case errors.Is(err, io.EOF):
		return n, io.EOF
	case err != nil:
		return n, fmt.Errorf("decode vorbis: %w", err)
	}
	return n, nil
}

// Decoder decodes Ogg Vorbis streams.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbisFile, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
