// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ik5/audconv/utils"
)

// BitDepth of every Pipeline output. Samples are signed integer PCM.
const BitDepth = 16

// DefaultBlockSize is the nominal converter block in source frames.
const DefaultBlockSize = 4096

// maxEmptyReads bounds how many (0, nil) reads Run tolerates in a row.
const maxEmptyReads = 100

// Stage is a Pipeline state. It is also reported in StageError.
type Stage int

const (
	StageIdle Stage = iota
	StageAccumulating
	StageTrimming
	StageResampling
	StageEmitting
	StageFinalized
	StageFailed
)

var stageNames = [...]string{
	StageIdle:         "idle",
	StageAccumulating: "accumulating",
	StageTrimming:     "trimming",
	StageResampling:   "resampling",
	StageEmitting:     "emitting",
	StageFinalized:    "finalized",
	StageFailed:       "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// AudioSpec describes one conversion. It does not change once a Pipeline
// is built.
type AudioSpec struct {
	Channels   int
	SourceRate int
	TargetRate int
}

func (s AudioSpec) Validate() error {
	if s.Channels <= 0 || s.SourceRate <= 0 || s.TargetRate <= 0 {
		return fmt.Errorf("%w: channels=%d source=%dHz target=%dHz",
			ErrInvalidSpec, s.Channels, s.SourceRate, s.TargetRate)
	}
	return nil
}

// Resampling reports whether the source and target rates differ.
func (s AudioSpec) Resampling() bool { return s.SourceRate != s.TargetRate }

// TrimOrder places silence trimming before or after resampling.
type TrimOrder int

const (
	// TrimBeforeResample trims source-rate frames. The whole input is held
	// until Finish.
	TrimBeforeResample TrimOrder = iota
	// TrimAfterResample resamples while input arrives and trims the
	// target-rate frames before quantizing.
	TrimAfterResample
)

func (o TrimOrder) String() string {
	switch o {
	case TrimBeforeResample:
		return "before"
	case TrimAfterResample:
		return "after"
	default:
		return fmt.Sprintf("TrimOrder(%d)", int(o))
	}
}

func ParseTrimOrder(s string) (TrimOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before", "":
		return TrimBeforeResample, nil
	case "after":
		return TrimAfterResample, nil
	}
	return TrimBeforeResample, fmt.Errorf("%w: unknown trim order %q", ErrInvalidSpec, s)
}

// Config holds the Pipeline options. Zero values of BlockSize, NewConverter
// and Observer are replaced with defaults.
type Config struct {
	BlockSize int
	Trim      TrimConfig
	Order     TrimOrder

	// TrimOnlyWhenResampling disables trimming when the rates are equal.
	TrimOnlyWhenResampling bool

	// Clamp saturates out of range samples instead of wrapping them.
	Clamp bool

	NewConverter ConverterFactory
	Observer     Observer
}

// DefaultConfig returns hysteresis trimming before resampling with the
// default block size and converter.
func DefaultConfig() Config {
	return Config{
		BlockSize:    DefaultBlockSize,
		Trim:         DefaultTrimConfig(),
		Order:        TrimBeforeResample,
		NewConverter: DefaultConverterFactory,
		Observer:     NopObserver{},
	}
}

// Pipeline turns float frames at the source rate into int16 frames at the
// target rate, with optional silence trimming.
//
// Frames can be written in one batch or packet by packet; both produce the
// same output. Finish completes the conversion. Any fatal error aborts the
// sink, and every later call returns ErrPipelineClosed. A Pipeline is not
// safe for concurrent use.
type Pipeline struct {
	spec AudioSpec
	cfg  Config
	sink Sink
	obs  Observer

	stage Stage

	in        *ChannelBuffer
	out       *ChannelBuffer
	resampler *BlockResampler
	trimmer   *SilenceTrimmer
	trimFirst bool
	trimLast  bool

	pcm []int16

	inFrames  int64
	outFrames int64
	direct    int64
	base      int64
	trimmed   int64
}

func NewPipeline(spec AudioSpec, cfg Config, sink Sink) (*Pipeline, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", ErrInvalidSpec)
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.BlockSize < 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidSpec, cfg.BlockSize)
	}
	if cfg.NewConverter == nil {
		cfg.NewConverter = DefaultConverterFactory
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Order != TrimBeforeResample && cfg.Order != TrimAfterResample {
		return nil, fmt.Errorf("%w: trim order %v", ErrInvalidSpec, cfg.Order)
	}

	p := &Pipeline{
		spec: spec,
		cfg:  cfg,
		sink: sink,
		obs:  cfg.Observer,
		in:   NewChannelBuffer(spec.Channels),
	}

	if cfg.Trim.Mode != TrimNone && (spec.Resampling() || !cfg.TrimOnlyWhenResampling) {
		tr, err := NewSilenceTrimmer(cfg.Trim)
		if err != nil {
			return nil, err
		}
		p.trimmer = tr
		p.trimFirst = cfg.Order == TrimBeforeResample
		p.trimLast = cfg.Order == TrimAfterResample
		if p.trimLast {
			p.out = NewChannelBuffer(spec.Channels)
		}
	}

	if spec.Resampling() {
		conv, err := cfg.NewConverter(spec.SourceRate, spec.TargetRate, cfg.BlockSize, spec.Channels)
		if err != nil {
			return nil, err
		}
		if conv.Channels() != spec.Channels {
			return nil, fmt.Errorf("%w: converter has %d channels, spec has %d",
				ErrResampler, conv.Channels(), spec.Channels)
		}
		p.resampler, err = NewBlockResampler(conv, spec.SourceRate, spec.TargetRate)
		if err != nil {
			return nil, err
		}
	}

	if err := sink.Open(spec); err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}

	return p, nil
}

func (p *Pipeline) Spec() AudioSpec { return p.spec }

// State returns the current stage.
func (p *Pipeline) State() Stage { return p.stage }

// Write appends one batch of deinterleaved frames.
func (p *Pipeline) Write(batch [][]float32) error {
	if err := p.accept(); err != nil {
		return err
	}
	if err := p.in.Append(batch); err != nil {
		return p.fail(StageAccumulating, err)
	}
	p.inFrames += int64(Chunk(batch).Frames())

	return p.pump()
}

// WriteInterleaved appends interleaved samples. A sample count that is not
// a multiple of the channel count fails the conversion with
// ErrMalformedAudio.
func (p *Pipeline) WriteInterleaved(samples []float32) error {
	if err := p.accept(); err != nil {
		return err
	}
	if err := p.in.AppendInterleaved(samples); err != nil {
		return p.fail(StageAccumulating, err)
	}
	p.inFrames += int64(len(samples) / p.spec.Channels)

	return p.pump()
}

// Run reads src until io.EOF and then calls Finish. The source must match
// the pipeline spec.
func (p *Pipeline) Run(src Source) error {
	if err := p.accept(); err != nil {
		return err
	}
	if src.Channels() != p.spec.Channels || src.SampleRate() != p.spec.SourceRate {
		return p.fail(StageAccumulating, fmt.Errorf("%w: source is %d channels at %d Hz, want %d at %d Hz",
			ErrShape, src.Channels(), src.SampleRate(), p.spec.Channels, p.spec.SourceRate))
	}

	size := src.BufSize()
	if size <= 0 {
		size = DefaultBlockSize
	}
	size = max(size/p.spec.Channels, 1) * p.spec.Channels
	buf := make([]float32, size)

	empty := 0
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			empty = 0
			if werr := p.WriteInterleaved(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p.fail(StageAccumulating, fmt.Errorf("%w: %w", ErrDecode, err))
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return p.fail(StageAccumulating, fmt.Errorf("%w: %w", ErrDecode, io.ErrNoProgress))
			}
		}
	}

	return p.Finish()
}

// Finish trims, flushes the resampler tail and finalizes the sink.
func (p *Pipeline) Finish() error {
	if err := p.accept(); err != nil {
		return err
	}

	if p.trimFirst {
		p.enter(StageTrimming)
		bounds, err := p.trim(p.in, p.spec.SourceRate)
		if err != nil {
			return p.fail(StageTrimming, err)
		}
		p.base = int64(bounds.Start)
	}

	if p.resampler != nil {
		p.enter(StageResampling)
	}
	if err := p.process(true); err != nil {
		return p.fail(StageResampling, err)
	}

	if p.trimLast {
		p.enter(StageTrimming)
		if _, err := p.trim(p.out, p.spec.TargetRate); err != nil {
			return p.fail(StageTrimming, err)
		}
		p.enter(StageEmitting)
		if err := p.emit(p.out.Frames()); err != nil {
			return p.fail(StageEmitting, err)
		}
		p.out.Reset()
	}

	p.enter(StageEmitting)
	if err := p.sink.Finalize(); err != nil {
		return p.fail(StageEmitting, fmt.Errorf("finalize sink: %w", err))
	}

	p.enter(StageFinalized)
	p.obs.Finished(Stats{
		InputFrames:   p.inFrames,
		OutputFrames:  p.outFrames,
		TrimmedFrames: p.trimmed,
	})

	return nil
}

func (p *Pipeline) accept() error {
	switch p.stage {
	case StageFinalized, StageFailed:
		return fmt.Errorf("%w: pipeline is %s", ErrPipelineClosed, p.stage)
	case StageIdle:
		p.enter(StageAccumulating)
	}
	return nil
}

func (p *Pipeline) enter(stage Stage) {
	if p.stage == stage {
		return
	}
	p.stage = stage
	p.obs.StageEntered(stage)
}

// pump processes what it can while input is still arriving. Trimming
// before resampling needs the whole input, so nothing moves until Finish.
func (p *Pipeline) pump() error {
	if p.trimFirst {
		return nil
	}
	if err := p.process(false); err != nil {
		return p.fail(StageResampling, err)
	}
	return nil
}

// process moves frames from the input buffer towards the sink, or towards
// the output buffer when trimming happens after resampling. With final set
// the resampler tail is flushed.
func (p *Pipeline) process(final bool) error {
	target := p.emit
	if p.trimLast {
		target = func(c Chunk) error { return p.out.Append(c) }
	}

	if p.resampler == nil {
		n := p.in.Len()
		if n == 0 {
			return nil
		}
		if err := target(p.in.Frames()); err != nil {
			return err
		}
		p.direct += int64(n)
		p.in.Reset()
		return nil
	}

	if final {
		return p.resampler.Flush(p.in, target)
	}
	return p.resampler.Drain(p.in, target)
}

func (p *Pipeline) trim(buf *ChannelBuffer, rate int) (TrimBounds, error) {
	n := buf.Len()
	bounds, err := p.trimmer.Bounds(buf.Frames(), rate)
	if err != nil {
		return TrimBounds{}, err
	}
	if err := buf.Keep(bounds); err != nil {
		return TrimBounds{}, err
	}
	p.trimmed += int64(n - bounds.Len())
	p.obs.Trimmed(bounds, n)

	return bounds, nil
}

// emit quantizes c and hands it to the sink.
func (p *Pipeline) emit(c Chunk) error {
	frames := c.Frames()
	if frames == 0 {
		return nil
	}

	channels := len(c)
	need := frames * channels
	if cap(p.pcm) < need {
		p.pcm = make([]int16, need)
	}
	pcm := p.pcm[:need]

	if channels == 1 {
		utils.QuantizeInto(pcm, c[0], p.cfg.Clamp)
	} else {
		quantize := utils.Quantize
		if p.cfg.Clamp {
			quantize = utils.QuantizeClamped
		}
		for ch, samples := range c {
			for i, v := range samples {
				pcm[i*channels+ch] = quantize(v)
			}
		}
	}

	if err := p.sink.WriteFrames(pcm); err != nil {
		return &StageError{Stage: StageEmitting, Frame: p.position(), Err: err}
	}
	p.outFrames += int64(frames)
	p.obs.FramesEmitted(frames)

	return nil
}

// position is the input frame index reached by the processing stages.
func (p *Pipeline) position() int64 {
	if p.resampler != nil {
		return p.base + p.resampler.Consumed()
	}
	return p.base + p.direct
}

func (p *Pipeline) fail(stage Stage, err error) error {
	var se *StageError
	if !errors.As(err, &se) {
		frame := p.inFrames
		if stage != StageAccumulating {
			frame = p.position()
		}
		err = &StageError{Stage: stage, Frame: frame, Err: err}
	}

	if abortErr := p.sink.Abort(); abortErr != nil {
		err = errors.Join(err, fmt.Errorf("abort sink: %w", abortErr))
	}

	p.enter(StageFailed)
	p.obs.Failed(err)

	return err
}
