// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audconv/audio"
)

const (
	// go-mp3 always decodes to 16-bit little-endian stereo.
	channels   = 2
	frameBytes = channels * 2

	defaultBufBytes = 8192
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	// pending bytes of an incomplete frame kept at the front of buf
	pending int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

// ReadSamples returns whole stereo frames. Bytes of a frame split across two
// decoder reads are carried over to the next call.
func (s *source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) / channels * frameBytes
	if need == 0 {
		return 0, nil
	}
	if cap(s.buf) < need {
		buf := make([]byte, need)
		copy(buf, s.buf[:s.pending])
		s.buf = buf
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf[s.pending:])
	n += s.pending

	whole := n - n%frameBytes
	samples := whole / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(s.buf[2*i:]))) / 32768.0
	}
	s.pending = copy(s.buf, s.buf[whole:n])

	switch {
	case errors.Is(err, io.EOF):
		return samples, io.EOF
	case err != nil:
		return samples, fmt.Errorf("decode mp3: %w", err)
	}
	return samples, nil
}

// Decoder decodes MPEG-1/2 Layer III streams to stereo PCM.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3File, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, defaultBufBytes),
	}, nil
}
