// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audconv/audio"
)

const (
	formatPCM = 1

	defaultBufFrames = 4096
)

// pcmReader is the part of gowav.Decoder the source needs, split out for
// tests.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        pcmReader
	sampleRate int
	channels   int
	scale      float32
	intBuf     *goaudio.IntBuffer
	eof        bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return defaultBufFrames * s.channels }

// ReadSamples always returns whole frames. A truncated last frame is
// dropped.
func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}
	if cap(s.intBuf.Data) < want {
		s.intBuf.Data = make([]int, want)
	}

	n := 0
	for n < want {
		// PCMBuffer always fills from the start of Data.
		s.intBuf.Data = s.intBuf.Data[:want-n]
		m, err := s.dec.PCMBuffer(s.intBuf)
		for i, v := range s.intBuf.Data[:m] {
			dst[n+i] = float32(v) / s.scale
		}
		n += m
		if err != nil {
			return n - n%s.channels, fmt.Errorf("read wav pcm: %w", err)
		}
		if m == 0 {
			s.eof = true
			break
		}
	}

	n -= n % s.channels
	if s.eof {
		return n, io.EOF
	}
	return n, nil
}

// Decoder reads integer PCM WAV files with 16, 24 or 32 bit samples.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio needs to seek between chunks.
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, ErrUnsupportedWavLayout
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrOnlyPCMSupported, dec.WavAudioFormat)
	}

	scale, err := sampleScale(int(dec.BitDepth))
	if err != nil {
		return nil, err
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavChunks, err)
	}

	channels := int(dec.NumChans)
	return &source{
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		scale:      scale,
		intBuf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  int(dec.SampleRate),
			},
			Data:           make([]int, defaultBufFrames*channels),
			SourceBitDepth: int(dec.BitDepth),
		},
	}, nil
}

func sampleScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}
