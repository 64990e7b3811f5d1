// SPDX-License-Identifier: EPL-2.0

// Package config loads converter settings from an optional YAML file and
// AUDCONV_ environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ik5/audconv/audio"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "AUDCONV_"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Config holds all configuration for the CLI.
//
// Values from a YAML file win. Environment variables only fill fields the
// file left at their zero value, and defaults fill whatever is still zero.
type Config struct {
	// Conversion settings
	TargetRate int    `env:"TARGET_RATE, default=16000" yaml:"target_rate" validate:"gt=0,lte=384000"`
	OutputDir  string `env:"OUTPUT_DIR, default=." yaml:"output_dir" validate:"required"`
	Downmix    bool   `env:"DOWNMIX" yaml:"downmix"`
	BlockSize  int    `env:"BLOCK_SIZE, default=4096" yaml:"block_size" validate:"gt=0"`
	Clamp      bool   `env:"CLAMP" yaml:"clamp"`

	Trim TrimConfig `env:", prefix=TRIM_" yaml:"trim"`

	// Batch settings
	Workers   int  `env:"WORKERS, default=4" yaml:"workers" validate:"gte=0"`
	KeepGoing bool `env:"KEEP_GOING" yaml:"keep_going"`

	// Optional S3 publishing
	S3 S3Config `env:", prefix=S3_" yaml:"s3"`

	// MetricsTextfile is written in the Prometheus text format after a run.
	MetricsTextfile string `env:"METRICS_TEXTFILE" yaml:"metrics_textfile"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" yaml:"log_format" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL, default=info" yaml:"log_level" validate:"oneof=debug info warn warning error"`
}

// TrimConfig selects and tunes silence trimming.
type TrimConfig struct {
	Mode         string        `env:"MODE, default=hysteresis" yaml:"mode" validate:"oneof=none hysteresis trailing"`
	Order        string        `env:"ORDER, default=before" yaml:"order" validate:"oneof=before after"`
	Threshold    float32       `env:"THRESHOLD, default=0.01" yaml:"threshold" validate:"gt=0,lt=1"`
	MinActiveRun int           `env:"MIN_ACTIVE_RUN, default=1024" yaml:"min_active_run" validate:"gt=0"`
	Guard        time.Duration `env:"GUARD, default=500ms" yaml:"guard" validate:"gte=0"`
	GuardFrames  int           `env:"GUARD_FRAMES" yaml:"guard_frames" validate:"gte=0"`

	// OnlyWhenResampling skips trimming when the input already has the
	// target rate.
	OnlyWhenResampling bool `env:"ONLY_WHEN_RESAMPLING" yaml:"only_when_resampling"`
}

// S3Config describes the bucket finished files are uploaded to. Publishing
// is off while Bucket is empty.
type S3Config struct {
	Bucket          string `env:"BUCKET" yaml:"bucket"`
	Region          string `env:"REGION" yaml:"region" validate:"required_with=Bucket"`
	Prefix          string `env:"PREFIX" yaml:"prefix"`
	Endpoint        string `env:"ENDPOINT" yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `env:"ACCESS_KEY_ID" yaml:"access_key_id"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY" yaml:"secret_access_key" validate:"required_with=AccessKeyID"`
}

// Enabled returns true if a bucket is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// Load reads configuration from the environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, nil, envconfig.OsLookuper())
}

// LoadFile reads the YAML file at path and then the environment.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFrom(ctx, f, envconfig.OsLookuper())
	if err != nil {
		return nil, fmt.Errorf("config: load %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFrom decodes YAML from r, when r is not nil, then fills the remaining
// fields through l with EnvPrefix applied, and validates the result.
func LoadFrom(ctx context.Context, r io.Reader, l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if r != nil {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field against its validate tag.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// PipelineConfig translates the settings into an audio.Config.
func (c *Config) PipelineConfig() (audio.Config, error) {
	mode, err := audio.ParseTrimMode(c.Trim.Mode)
	if err != nil {
		return audio.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	order, err := audio.ParseTrimOrder(c.Trim.Order)
	if err != nil {
		return audio.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := audio.DefaultConfig()
	cfg.BlockSize = c.BlockSize
	cfg.Order = order
	cfg.Clamp = c.Clamp
	cfg.TrimOnlyWhenResampling = c.Trim.OnlyWhenResampling
	cfg.Trim = audio.TrimConfig{
		Mode:         mode,
		Threshold:    c.Trim.Threshold,
		MinActiveRun: c.Trim.MinActiveRun,
		Guard:        c.Trim.Guard,
		GuardFrames:  c.Trim.GuardFrames,
	}

	if err := cfg.Trim.Validate(); err != nil {
		return audio.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// NewLogger creates a structured logger on stderr based on the
// configuration. When LogFormat is "json", it outputs JSON logs. Otherwise,
// it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stderr)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with credentials
// masked.
func (c *Config) String() string {
	secret := ""
	if c.S3.SecretAccessKey != "" {
		secret = "***"
	}

	return fmt.Sprintf(
		"Config{TargetRate: %d, OutputDir: %s, Downmix: %t, BlockSize: %d, Clamp: %t, "+
			"Trim: {Mode: %s, Order: %s, Threshold: %g, MinActiveRun: %d, Guard: %s, GuardFrames: %d}, "+
			"Workers: %d, KeepGoing: %t, S3: {Bucket: %s, Region: %s, Prefix: %s, Endpoint: %s, SecretAccessKey: %s}, "+
			"MetricsTextfile: %s, LogFormat: %s, LogLevel: %s}",
		c.TargetRate, c.OutputDir, c.Downmix, c.BlockSize, c.Clamp,
		c.Trim.Mode, c.Trim.Order, c.Trim.Threshold, c.Trim.MinActiveRun, c.Trim.Guard, c.Trim.GuardFrames,
		c.Workers, c.KeepGoing, c.S3.Bucket, c.S3.Region, c.S3.Prefix, c.S3.Endpoint, secret,
		c.MetricsTextfile, c.LogFormat, c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
