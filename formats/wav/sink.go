// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audconv/audio"
)

// FileSink writes a 16-bit PCM WAV file. Frames go to a temporary file in
// the same directory, which is renamed to the final path on Finalize and
// removed on Abort, so a failed conversion never leaves a partial file at
// path.
type FileSink struct {
	path string
	perm os.FileMode

	f      *os.File
	enc    *gowav.Encoder
	intBuf *goaudio.IntBuffer
	frames int64
	done   bool
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, perm: 0o644}
}

func (s *FileSink) Path() string  { return s.path }
func (s *FileSink) Frames() int64 { return s.frames }

func (s *FileSink) Open(spec audio.AudioSpec) error {
	if s.f != nil || s.done {
		return fmt.Errorf("%w: open called twice", ErrSinkState)
	}

	f, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	s.f = f
	s.enc = gowav.NewEncoder(f, spec.TargetRate, audio.BitDepth, spec.Channels, formatPCM)
	s.intBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: spec.Channels,
			SampleRate:  spec.TargetRate,
		},
		SourceBitDepth: audio.BitDepth,
	}

	// An empty write emits the header, so a conversion with no output
	// still produces a valid file.
	if err := s.enc.Write(s.intBuf); err != nil {
		return errors.Join(fmt.Errorf("write wav header: %w", err), s.discard())
	}

	return nil
}

func (s *FileSink) WriteFrames(samples []int16) error {
	if s.f == nil {
		return fmt.Errorf("%w: write without open", ErrSinkState)
	}

	data := s.intBuf.Data[:0]
	for _, v := range samples {
		data = append(data, int(v))
	}
	s.intBuf.Data = data

	if err := s.enc.Write(s.intBuf); err != nil {
		return fmt.Errorf("write wav frames: %w", err)
	}
	s.frames += int64(len(samples) / s.intBuf.Format.NumChannels)

	return nil
}

// Finalize patches the header sizes and moves the file into place.
func (s *FileSink) Finalize() error {
	if s.f == nil {
		return fmt.Errorf("%w: finalize without open", ErrSinkState)
	}

	if err := s.enc.Close(); err != nil {
		return errors.Join(fmt.Errorf("close wav encoder: %w", err), s.discard())
	}

	tmp := s.f.Name()
	if err := s.f.Close(); err != nil {
		s.f = nil
		return errors.Join(fmt.Errorf("close temp file: %w", err), os.Remove(tmp))
	}
	s.f = nil
	s.done = true

	if err := os.Chmod(tmp, s.perm); err != nil {
		return errors.Join(fmt.Errorf("chmod output: %w", err), os.Remove(tmp))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Join(fmt.Errorf("rename output: %w", err), os.Remove(tmp))
	}

	return nil
}

// Abort removes the temporary file. It is safe to call more than once.
func (s *FileSink) Abort() error {
	if s.f == nil {
		return nil
	}
	return s.discard()
}

func (s *FileSink) discard() error {
	tmp := s.f.Name()
	err := s.f.Close()
	s.f = nil
	s.done = true

	if rerr := os.Remove(tmp); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
		err = errors.Join(err, rerr)
	}
	return err
}

// StreamSink buffers the whole output and writes it to w on Finalize. Use
// it when w cannot seek; nothing reaches w if the conversion fails.
type StreamSink struct {
	w       io.Writer
	spec    audio.AudioSpec
	samples []int16
	open    bool
}

func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: w}
}

func (s *StreamSink) Open(spec audio.AudioSpec) error {
	if s.open {
		return fmt.Errorf("%w: open called twice", ErrSinkState)
	}
	s.spec = spec
	s.open = true
	return nil
}

func (s *StreamSink) WriteFrames(samples []int16) error {
	if !s.open {
		return fmt.Errorf("%w: write without open", ErrSinkState)
	}
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *StreamSink) Finalize() error {
	if !s.open {
		return fmt.Errorf("%w: finalize without open", ErrSinkState)
	}
	s.open = false

	samples := s.samples
	s.samples = nil
	return WriteWAV16(s.w, s.spec.TargetRate, s.spec.Channels, samples)
}

func (s *StreamSink) Abort() error {
	s.open = false
	s.samples = nil
	return nil
}
