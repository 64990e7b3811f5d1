// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"

	"github.com/ik5/audconv/audio"
)

// ErrSinkFailed is returned by a RecordingSink set up to fail.
var ErrSinkFailed = errors.New("sink failed")

// RecordingSink keeps everything a Pipeline sends it in memory.
type RecordingSink struct {
	Spec    audio.AudioSpec
	Samples []int16

	Opens     int
	Writes    int
	Finalizes int
	Aborts    int

	// FailWriteAt makes the n-th WriteFrames call (1-based) fail.
	FailWriteAt int
	// FailFinalize makes Finalize fail.
	FailFinalize bool
}

var _ audio.Sink = (*RecordingSink)(nil)

func (s *RecordingSink) Open(spec audio.AudioSpec) error {
	s.Opens++
	s.Spec = spec
	return nil
}

func (s *RecordingSink) WriteFrames(samples []int16) error {
	s.Writes++
	if s.FailWriteAt > 0 && s.Writes == s.FailWriteAt {
		return ErrSinkFailed
	}
	s.Samples = append(s.Samples, samples...)
	return nil
}

func (s *RecordingSink) Finalize() error {
	s.Finalizes++
	if s.FailFinalize {
		return ErrSinkFailed
	}
	return nil
}

// Abort drops the recorded samples.
func (s *RecordingSink) Abort() error {
	s.Aborts++
	s.Samples = nil
	return nil
}

// Frames returns the recorded frame count.
func (s *RecordingSink) Frames() int {
	if s.Spec.Channels == 0 {
		return 0
	}
	return len(s.Samples) / s.Spec.Channels
}
