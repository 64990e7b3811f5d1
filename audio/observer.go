// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"context"
	"log/slog"
)

// Stats summarises a finished conversion. TrimmedFrames is counted at the
// rate the trimmer ran at.
type Stats struct {
	InputFrames   int64
	OutputFrames  int64
	TrimmedFrames int64
}

// Observer receives pipeline events. Implementations must not block and
// cannot influence the conversion.
type Observer interface {
	StageEntered(stage Stage)
	Trimmed(bounds TrimBounds, frames int)
	FramesEmitted(frames int)
	Finished(stats Stats)
	Failed(err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StageEntered(Stage)      {}
func (NopObserver) Trimmed(TrimBounds, int) {}
func (NopObserver) FramesEmitted(int)       {}
func (NopObserver) Finished(Stats)          {}
func (NopObserver) Failed(error)            {}

// LogObserver writes pipeline events to a slog.Logger.
type LogObserver struct {
	log *slog.Logger
}

func NewLogObserver(log *slog.Logger) *LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) StageEntered(stage Stage) {
	o.log.Debug("pipeline stage", "stage", stage.String())
}

func (o *LogObserver) Trimmed(bounds TrimBounds, frames int) {
	o.log.Debug("silence trimmed",
		"start", bounds.Start,
		"end", bounds.End,
		"kept", bounds.Len(),
		"frames", frames)
}

// FramesEmitted is only logged at trace-like verbosity to keep debug output
// readable on long inputs.
func (o *LogObserver) FramesEmitted(frames int) {
	if o.log.Enabled(context.Background(), slog.LevelDebug-4) {
		o.log.Log(context.Background(), slog.LevelDebug-4, "frames emitted", "frames", frames)
	}
}

func (o *LogObserver) Finished(stats Stats) {
	o.log.Info("conversion finished",
		"input_frames", stats.InputFrames,
		"output_frames", stats.OutputFrames,
		"trimmed_frames", stats.TrimmedFrames)
}

func (o *LogObserver) Failed(err error) {
	o.log.Error("conversion failed", "err", err)
}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) StageEntered(stage Stage) {
	for _, o := range m {
		o.StageEntered(stage)
	}
}

func (m MultiObserver) Trimmed(bounds TrimBounds, frames int) {
	for _, o := range m {
		o.Trimmed(bounds, frames)
	}
}

func (m MultiObserver) FramesEmitted(frames int) {
	for _, o := range m {
		o.FramesEmitted(frames)
	}
}

func (m MultiObserver) Finished(stats Stats) {
	for _, o := range m {
		o.Finished(stats)
	}
}

func (m MultiObserver) Failed(err error) {
	for _, o := range m {
		o.Failed(err)
	}
}
