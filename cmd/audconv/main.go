// SPDX-License-Identifier: EPL-2.0

// Command audconv converts audio files to 16-bit PCM WAV at a fixed sample
// rate, trimming leading and trailing silence.
//
//	audconv [-config audconv.yaml] [-rate 16000] [-out dir] input...
//
// Settings come from the optional YAML file and AUDCONV_ environment
// variables; flags that are set on the command line override both.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ik5/audconv"
	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/internal/config"
	"github.com/ik5/audconv/internal/observe"
	"github.com/ik5/audconv/internal/storage"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to an optional YAML configuration file")
	rate := flag.Int("rate", 0, "target sample rate in Hz")
	outDir := flag.String("out", "", "output directory")
	trim := flag.String("trim", "", "silence trimming: none, hysteresis or trailing")
	downmix := flag.Bool("downmix", false, "average all channels into one")
	workers := flag.Int("workers", 0, "conversions running at once, 0 for no limit")
	keepGoing := flag.Bool("keep-going", false, "convert the remaining inputs after a failure")
	publishDir := flag.String("publish", "", "copy finished files into this directory")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: audconv [flags] <input.{wav|mp3|ogg|aiff}>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audconv: %v\n", err)
		return 1
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			cfg.TargetRate = *rate
		case "out":
			cfg.OutputDir = *outDir
		case "trim":
			cfg.Trim.Mode = *trim
		case "downmix":
			cfg.Downmix = *downmix
		case "workers":
			cfg.Workers = *workers
		case "keep-going":
			cfg.KeepGoing = *keepGoing
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "audconv: %v\n", err)
		return 1
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	slog.Debug("audconv starting", "version", version, "config", cfg.String())

	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(provider.MeterProvider)
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	pipelineCfg, err := cfg.PipelineConfig()
	if err != nil {
		slog.Error("invalid pipeline configuration", "err", err)
		return 1
	}
	pipelineCfg.Observer = metrics

	publishers, err := buildPublishers(ctx, cfg, *publishDir)
	if err != nil {
		slog.Error("failed to set up publishing", "err", err)
		return 1
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		slog.Error("failed to create output directory", "dir", cfg.OutputDir, "err", err)
		return 1
	}

	reg := audconv.DefaultRegistry()
	converters := make([]*audconv.Converter, 0, flag.NArg())
	for _, in := range flag.Args() {
		converters = append(converters, audconv.NewConverter(outputPath(cfg.OutputDir, in, cfg.TargetRate), cfg.TargetRate).
			WithInputPath(in).
			WithConfig(pipelineCfg).
			WithDownmix(cfg.Downmix).
			WithRegistry(reg).
			WithLogger(logger))
	}

	start := time.Now()
	results, batchErr := audconv.ConvertAll(ctx, converters, audconv.BatchOptions{
		Limit:     cfg.Workers,
		KeepGoing: cfg.KeepGoing,
	})

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			slog.Error("conversion failed", "input", res.Input, "err", res.Err)
			continue
		}

		slog.Info("converted",
			"input", res.Input,
			"output", res.Output,
			"format", res.Format,
			"source_rate", res.Spec.SourceRate,
			"frames", res.Stats.OutputFrames,
			"trimmed", res.Stats.TrimmedFrames,
		)
		publish(ctx, publishers, res.Output)
	}

	slog.Info("batch finished",
		"inputs", len(converters),
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if cfg.MetricsTextfile != "" {
		if err := observe.WriteTextfile(cfg.MetricsTextfile, provider.Gatherer); err != nil {
			slog.Warn("metrics not written", "err", err)
		}
	}

	if batchErr != nil {
		if errors.Is(batchErr, audio.ErrUnknownFormat) {
			slog.Info("supported formats", "formats", strings.Join(reg.Formats(), ", "))
		}
		return 1
	}
	return 0
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		return config.Load(ctx)
	}
	return config.LoadFile(ctx, path)
}

// outputPath places <name>.wav in dir. An input that would be overwritten
// gets the rate appended instead.
func outputPath(dir, in string, rate int) string {
	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := filepath.Join(dir, name+".wav")

	absIn, errIn := filepath.Abs(in)
	absOut, errOut := filepath.Abs(out)
	if errIn == nil && errOut == nil && absIn == absOut {
		out = filepath.Join(dir, fmt.Sprintf("%s-%d.wav", name, rate))
	}
	return out
}

func buildPublishers(ctx context.Context, cfg *config.Config, dir string) ([]storage.Publisher, error) {
	var pubs []storage.Publisher

	if dir != "" {
		p, err := storage.NewLocalPublisher(dir)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, p)
	}

	if cfg.S3.Enabled() {
		p, err := storage.NewS3Publisher(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, p)
	}

	return pubs, nil
}

// publish failures are logged; the converted file stays in place.
func publish(ctx context.Context, pubs []storage.Publisher, path string) {
	for _, p := range pubs {
		loc, err := p.Publish(ctx, path)
		if err != nil {
			slog.Error("publish failed", "file", path, "err", err)
			continue
		}
		slog.Info("published", "file", path, "location", loc)
	}
}
