// Package config holds the settings of an encoding run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/dfpwm"
	"github.com/cwbudde/dfpwm/internal/source"
	"gopkg.in/yaml.v3"
)

// Limits of the recognized options.
const (
	MinSampleRate     = 8000
	MaxSampleRate     = 96000
	DefaultSampleRate = 48000

	MinChunkSeconds     = 5
	MaxChunkSeconds     = 600
	DefaultChunkSeconds = 60

	DefaultExtension  = ".dfpwm"
	DefaultFFmpegPath = "ffmpeg"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the configuration of an encoding run.
type Config struct {
	SampleRate   int           `yaml:"sample_rate"`
	ChunkSeconds int           `yaml:"chunk_seconds"`
	Mode         dfpwm.Mode    `yaml:"mode"`
	Decoder      DecoderConfig `yaml:"decoder"`
	Output       OutputConfig  `yaml:"output"`
	// Jobs is the number of assets encoded concurrently.
	Jobs    int           `yaml:"jobs"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DecoderConfig selects how assets are turned into samples.
type DecoderConfig struct {
	Backend    string `yaml:"backend"`     // auto, ffmpeg or native
	FFmpegPath string `yaml:"ffmpeg_path"` // ffmpeg binary, looked up in PATH if not absolute
}

// OutputConfig controls where chunk files go.
type OutputConfig struct {
	// Root is the directory receiving the <stem>_chunks directories. Empty
	// means next to each asset.
	Root      string `yaml:"root"`
	Extension string `yaml:"extension"`
}

// MetricsConfig controls the metrics export.
type MetricsConfig struct {
	// Textfile is written in the Prometheus text format after the run.
	Textfile string `yaml:"textfile"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		SampleRate:   DefaultSampleRate,
		ChunkSeconds: DefaultChunkSeconds,
		Mode:         dfpwm.ModeCurrent,
		Decoder: DecoderConfig{
			Backend:    source.BackendAuto,
			FFmpegPath: DefaultFFmpegPath,
		},
		Output: OutputConfig{
			Extension: DefaultExtension,
		},
		Jobs: 1,
	}
}

// Load reads a YAML configuration file. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ChunkSize returns the nominal number of samples per chunk.
func (c *Config) ChunkSize() int {
	return c.SampleRate * c.ChunkSeconds
}

// Validate checks every option against its allowed range.
func (c *Config) Validate() error {
	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample_rate %d out of range [%d, %d]", ErrInvalid, c.SampleRate, MinSampleRate, MaxSampleRate)
	}

	if c.ChunkSeconds < MinChunkSeconds || c.ChunkSeconds > MaxChunkSeconds {
		return fmt.Errorf("%w: chunk_seconds %d out of range [%d, %d]", ErrInvalid, c.ChunkSeconds, MinChunkSeconds, MaxChunkSeconds)
	}

	if _, err := c.Mode.MarshalText(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder config: %w", err)
	}

	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if c.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalid, c.Jobs)
	}

	return nil
}

// Validate checks the decoder settings.
func (d *DecoderConfig) Validate() error {
	switch d.Backend {
	case source.BackendAuto, source.BackendFFmpeg, source.BackendNative:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, d.Backend)
	}

	if d.Backend != source.BackendNative && d.FFmpegPath == "" {
		return fmt.Errorf("%w: ffmpeg_path is required for backend %q", ErrInvalid, d.Backend)
	}

	return nil
}

// Validate checks the output settings.
func (o *OutputConfig) Validate() error {
	if !strings.HasPrefix(o.Extension, ".") || strings.ContainsAny(o.Extension, `/\`) {
		return fmt.Errorf("%w: extension %q must start with a dot and hold no separators", ErrInvalid, o.Extension)
	}

	return nil
}
