// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audconv/audio"
)

const defaultBufFrames = 4096

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio aiff.Decoder to implement audio.Source
type source struct {
	dec        aiffReader
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

// ReadSamples keeps asking the decoder until dst holds whole frames or the
// data runs out.
func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}
	if s.intBuf == nil {
		s.intBuf = &goaudio.IntBuffer{Format: s.dec.Format()}
	}
	if cap(s.intBuf.Data) < want {
		s.intBuf.Data = make([]int, want)
	}

	n := 0
	for n < want {
		s.intBuf.Data = s.intBuf.Data[:want-n]
		m, err := s.dec.PCMBuffer(s.intBuf)
		for i, v := range s.intBuf.Data[:m] {
			dst[n+i] = float32(v) / s.scale
		}
		n += m

		if errors.Is(err, io.EOF) || (m == 0 && err == nil) {
			s.eof = true
			break
		}
		if err != nil {
			return n - n%s.channels, fmt.Errorf("read aiff pcm: %w", err)
		}
	}

	n -= n % s.channels
	if s.eof {
		return n, io.EOF
	}
	return n, nil
}

// Decoder reads uncompressed AIFF files.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	scale, err := sampleScale(int(dec.BitDepth))
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	return &source{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		scale:      scale,
	}, nil
}

func sampleScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
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
