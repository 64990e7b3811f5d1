// SPDX-License-Identifier: EPL-2.0

package audconv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/formats/aiff"
	"github.com/ik5/audconv/formats/mp3"
	"github.com/ik5/audconv/formats/vorbis"
	"github.com/ik5/audconv/formats/wav"
)

const tracerName = "github.com/ik5/audconv"

// DefaultRegistry returns a registry with every bundled decoder.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	return reg
}

// Result describes a finished conversion.
type Result struct {
	Input  string
	Output string
	Format string
	Spec   audio.AudioSpec
	Stats  audio.Stats

	// Err is only set by ConvertAll, for a conversion that failed.
	Err error
}

// Converter converts one input to a WAV file at a fixed sample rate. Build
// it with NewConverter and the With methods; a Converter is not meant to be
// shared between goroutines.
type Converter struct {
	outputPath string
	targetRate int
	inputPath  string

	cfg      audio.Config
	downmix  bool
	registry *audio.Registry
	logger   *slog.Logger
}

func NewConverter(outputPath string, targetRate int) *Converter {
	return &Converter{
		outputPath: outputPath,
		targetRate: targetRate,
		cfg:        audio.DefaultConfig(),
	}
}

func (c *Converter) WithInputPath(path string) *Converter {
	c.inputPath = path
	return c
}

func (c *Converter) WithConfig(cfg audio.Config) *Converter {
	c.cfg = cfg
	return c
}

// WithDownmix averages all channels into one before conversion.
func (c *Converter) WithDownmix(on bool) *Converter {
	c.downmix = on
	return c
}

func (c *Converter) WithRegistry(reg *audio.Registry) *Converter {
	c.registry = reg
	return c
}

// WithLogger logs pipeline events of this conversion, tagged with the
// input name.
func (c *Converter) WithLogger(logger *slog.Logger) *Converter {
	c.logger = logger
	return c
}

func (c *Converter) InputPath() string  { return c.inputPath }
func (c *Converter) OutputPath() string { return c.outputPath }
func (c *Converter) TargetRate() int    { return c.targetRate }

// Convert decodes the input file and writes the WAV to the output path.
// The output file only appears when the conversion succeeds.
func (c *Converter) Convert(ctx context.Context) (Result, error) {
	if c.inputPath == "" {
		return Result{}, ErrNoInput
	}

	f, err := os.Open(c.inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return c.run(ctx, f, c.inputPath, wav.NewFileSink(c.outputPath))
}

// ConvertBytes converts an in-memory input and writes the WAV to the output
// path. The input path, when set, only serves as a format hint.
func (c *Converter) ConvertBytes(ctx context.Context, data []byte) (Result, error) {
	return c.run(ctx, bytes.NewReader(data), c.inputPath, wav.NewFileSink(c.outputPath))
}

// ConvertTo converts an in-memory input and writes the WAV to w. Nothing is
// written to w when the conversion fails.
func (c *Converter) ConvertTo(ctx context.Context, data []byte, w io.Writer) (Result, error) {
	res, err := c.run(ctx, bytes.NewReader(data), c.inputPath, wav.NewStreamSink(w))
	res.Output = ""
	return res, err
}

func (c *Converter) run(ctx context.Context, rs io.ReadSeeker, name string, sink audio.Sink) (res Result, err error) {
	res = Result{Input: name, Output: c.outputPath}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "audconv.Convert",
		trace.WithAttributes(
			attribute.String("audconv.input", name),
			attribute.Int("audconv.target_rate", c.targetRate),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.targetRate <= 0 {
		return res, fmt.Errorf("%w: %d", ErrInvalidTargetRate, c.targetRate)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	reg := c.registry
	if reg == nil {
		reg = DefaultRegistry()
	}

	var src audio.Source
	src, res.Format, err = reg.Open(rs, name)
	if err != nil {
		return res, err
	}
	if c.downmix && src.Channels() > 1 {
		src = audio.NewMonoMixer(src)
	}
	defer src.Close()

	res.Spec = audio.AudioSpec{
		Channels:   src.Channels(),
		SourceRate: src.SampleRate(),
		TargetRate: c.targetRate,
	}
	span.SetAttributes(
		attribute.String("audconv.format", res.Format),
		attribute.Int("audconv.channels", res.Spec.Channels),
		attribute.Int("audconv.source_rate", res.Spec.SourceRate),
	)

	stats := &statsObserver{}
	cfg := c.cfg
	cfg.Observer = c.observer(cfg.Observer, stats, name)

	p, err := audio.NewPipeline(res.Spec, cfg, sink)
	if err != nil {
		return res, err
	}

	err = p.Run(&ctxSource{ctx: ctx, Source: src})
	res.Stats = stats.stats
	span.SetAttributes(
		attribute.Int64("audconv.input_frames", res.Stats.InputFrames),
		attribute.Int64("audconv.output_frames", res.Stats.OutputFrames),
	)

	return res, err
}

func (c *Converter) observer(base audio.Observer, stats *statsObserver, name string) audio.Observer {
	obs := audio.MultiObserver{stats}
	if base != nil {
		obs = append(obs, base)
	}
	if c.logger != nil {
		obs = append(obs, audio.NewLogObserver(c.logger.With("input", filepath.Base(name))))
	}
	return obs
}

// ctxSource stops a conversion once ctx is done.
type ctxSource struct {
	ctx context.Context
	audio.Source
}

func (s *ctxSource) ReadSamples(dst []float32) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	return s.Source.ReadSamples(dst)
}

type statsObserver struct {
	audio.NopObserver
	stats audio.Stats
}

func (o *statsObserver) Finished(stats audio.Stats) { o.stats = stats }
