// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"strings"
	"time"
)

// TrimMode selects how leading and trailing silence is located.
type TrimMode int

const (
	// TrimNone keeps every frame.
	TrimNone TrimMode = iota
	// TrimHysteresis trims both ends and only accepts runs of at least
	// MinActiveRun active frames as sound.
	TrimHysteresis
	// TrimTrailing keeps the start and cuts after the last active frame plus
	// the guard. Single active frames count.
	TrimTrailing
)

func (m TrimMode) String() string {
	switch m {
	case TrimNone:
		return "none"
	case TrimHysteresis:
		return "hysteresis"
	case TrimTrailing:
		return "trailing"
	default:
		return fmt.Sprintf("TrimMode(%d)", int(m))
	}
}

// ParseTrimMode is the inverse of TrimMode.String.
func ParseTrimMode(s string) (TrimMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return TrimNone, nil
	case "hysteresis":
		return TrimHysteresis, nil
	case "trailing":
		return TrimTrailing, nil
	}

	return TrimNone, fmt.Errorf("%w: unknown trim mode %q", ErrInvalidSpec, s)
}

const (
	DefaultThreshold    float32 = 0.01
	DefaultMinActiveRun         = 1024
	DefaultGuard                = 500 * time.Millisecond
)

// TrimConfig configures a SilenceTrimmer.
//
// The guard is GuardFrames when it is positive, otherwise Guard converted at
// the sample rate of the buffer being trimmed.
type TrimConfig struct {
	Mode         TrimMode
	Threshold    float32
	MinActiveRun int
	Guard        time.Duration
	GuardFrames  int
}

// DefaultTrimConfig returns a hysteresis configuration with a 0.01 threshold,
// a 1024 frame minimum run and a half second guard.
func DefaultTrimConfig() TrimConfig {
	return TrimConfig{
		Mode:         TrimHysteresis,
		Threshold:    DefaultThreshold,
		MinActiveRun: DefaultMinActiveRun,
		Guard:        DefaultGuard,
	}
}

func (c TrimConfig) Validate() error {
	if c.Mode == TrimNone {
		return nil
	}
	if c.Mode != TrimHysteresis && c.Mode != TrimTrailing {
		return fmt.Errorf("%w: trim mode %v", ErrInvalidSpec, c.Mode)
	}
	if !(c.Threshold > 0 && c.Threshold < 1) {
		return fmt.Errorf("%w: silence threshold %v outside (0, 1)", ErrInvalidSpec, c.Threshold)
	}
	if c.Mode == TrimHysteresis && c.MinActiveRun <= 0 {
		return fmt.Errorf("%w: min active run %d", ErrInvalidSpec, c.MinActiveRun)
	}
	if c.Guard < 0 || c.GuardFrames < 0 {
		return fmt.Errorf("%w: negative trailing guard", ErrInvalidSpec)
	}

	return nil
}

// GuardLength returns the trailing guard in frames at rate.
func (c TrimConfig) GuardLength(rate int) int {
	if c.GuardFrames > 0 {
		return c.GuardFrames
	}
	return int(c.Guard.Seconds() * float64(rate))
}

// SilenceTrimmer finds the active region of a buffer. It never modifies the
// samples it inspects.
type SilenceTrimmer struct {
	cfg TrimConfig
}

func NewSilenceTrimmer(cfg TrimConfig) (*SilenceTrimmer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SilenceTrimmer{cfg: cfg}, nil
}

func (t *SilenceTrimmer) Config() TrimConfig { return t.cfg }

// Bounds returns the region of frames to keep. rate is the sample rate of
// frames and only affects the guard.
func (t *SilenceTrimmer) Bounds(frames Chunk, rate int) (TrimBounds, error) {
	n := frames.Frames()
	for c := range frames {
		if len(frames[c]) != n {
			return TrimBounds{}, fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d",
				ErrShape, c, len(frames[c]), n)
		}
	}

	threshold := t.cfg.Threshold
	active := func(i int) bool {
		for c := range frames {
			if abs32(frames[c][i]) > threshold {
				return true
			}
		}
		return false
	}

	return t.bounds(n, active, rate), nil
}

// BoundsInterleaved is Bounds for interleaved samples. It fails with
// ErrMalformedAudio when len(samples) is not a multiple of channels.
func (t *SilenceTrimmer) BoundsInterleaved(samples []float32, channels, rate int) (TrimBounds, error) {
	if channels <= 0 || len(samples)%channels != 0 {
		return TrimBounds{}, fmt.Errorf("%w: %d samples, %d channels", ErrMalformedAudio, len(samples), channels)
	}

	threshold := t.cfg.Threshold
	active := func(i int) bool {
		for _, v := range samples[i*channels : (i+1)*channels] {
			if abs32(v) > threshold {
				return true
			}
		}
		return false
	}

	return t.bounds(len(samples)/channels, active, rate), nil
}

func (t *SilenceTrimmer) bounds(n int, active func(int) bool, rate int) TrimBounds {
	switch t.cfg.Mode {
	case TrimHysteresis:
		return hysteresisBounds(n, active, t.cfg.MinActiveRun, t.cfg.GuardLength(rate))
	case TrimTrailing:
		return trailingBounds(n, active, t.cfg.GuardLength(rate))
	default:
		return TrimBounds{Start: 0, End: n}
	}
}

// hysteresisBounds starts at the first frame of the first run of minRun
// active frames. The end is the last frame of the last such run, plus
// minRun frames of margin and the guard. Without a qualifying run nothing is
// trimmed.
func hysteresisBounds(n int, active func(int) bool, minRun, guard int) TrimBounds {
	start, run := -1, 0
	for i := range n {
		if !active(i) {
			run = 0
			continue
		}
		run++
		if run >= minRun {
			start = i - minRun + 1
			break
		}
	}
	if start < 0 {
		return TrimBounds{Start: 0, End: n}
	}

	last, top := start+minRun-1, 0
	run = 0
	for i := n - 1; i >= start; i-- {
		if !active(i) {
			run = 0
			continue
		}
		if run == 0 {
			top = i
		}
		run++
		if run >= minRun {
			last = top
			break
		}
	}

	return TrimBounds{Start: start, End: min(n, last+1+minRun+guard)}
}

// trailingBounds keeps [0, L+1+guard) where L is the last active frame. A
// buffer with no active frame yields an empty range.
func trailingBounds(n int, active func(int) bool, guard int) TrimBounds {
	for i := n - 1; i >= 0; i-- {
		if active(i) {
			return TrimBounds{Start: 0, End: min(n, i+1+guard)}
		}
	}
	return TrimBounds{}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
