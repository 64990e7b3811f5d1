// SPDX-License-Identifier: EPL-2.0

// Package observe provides OpenTelemetry metrics for conversions and the SDK
// setup that exports them.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [Metrics]
// implements audio.Observer, so it can be set as the Observer of an
// audio.Config and shared by every conversion of a batch. Tests should use
// [NewMetrics] with a custom [metric.MeterProvider].
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ik5/audconv/audio"
)

// meterName is the instrumentation scope name used for all audconv metrics.
const meterName = "github.com/ik5/audconv"

// Metrics holds the metric instruments for conversions. All fields are safe
// for concurrent use.
type Metrics struct {
	// Conversions counts finished conversions. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	Conversions metric.Int64Counter

	InputFrames   metric.Int64Counter
	OutputFrames  metric.Int64Counter
	TrimmedFrames metric.Int64Counter

	// Stages counts pipeline stage transitions. Use with attribute:
	//   attribute.String("stage", ...)
	Stages metric.Int64Counter

	// TrimRatio is the fraction of input frames removed as silence.
	TrimRatio metric.Float64Histogram
}

var ratioBuckets = []float64{0, 0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 1}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Conversions, err = m.Int64Counter("audconv.conversions",
		metric.WithDescription("Total conversions by status."),
	); err != nil {
		return nil, err
	}
	if met.InputFrames, err = m.Int64Counter("audconv.input.frames",
		metric.WithDescription("Input frames read by finished conversions."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.OutputFrames, err = m.Int64Counter("audconv.output.frames",
		metric.WithDescription("Frames written by finished conversions."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.TrimmedFrames, err = m.Int64Counter("audconv.trimmed.frames",
		metric.WithDescription("Frames removed as silence."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.Stages, err = m.Int64Counter("audconv.pipeline.stages",
		metric.WithDescription("Pipeline stage transitions by stage."),
	); err != nil {
		return nil, err
	}
	if met.TrimRatio, err = m.Float64Histogram("audconv.trim.ratio",
		metric.WithDescription("Fraction of the input trimmed as silence."),
		metric.WithExplicitBucketBoundaries(ratioBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) StageEntered(stage audio.Stage) {
	m.Stages.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("stage", stage.String())))
}

func (m *Metrics) Trimmed(audio.TrimBounds, int) {}
func (m *Metrics) FramesEmitted(int)             {}

func (m *Metrics) Finished(stats audio.Stats) {
	ctx := context.Background()

	m.Conversions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	m.InputFrames.Add(ctx, stats.InputFrames)
	m.OutputFrames.Add(ctx, stats.OutputFrames)
	m.TrimmedFrames.Add(ctx, stats.TrimmedFrames)

	if stats.InputFrames > 0 {
		m.TrimRatio.Record(ctx, float64(stats.TrimmedFrames)/float64(stats.InputFrames))
	}
}

func (m *Metrics) Failed(error) {
	m.Conversions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", "error")))
}
