package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/dfpwm"
	"github.com/cwbudde/dfpwm/internal/source"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.ChunkSize() != 48000*60 {
		t.Fatalf("ChunkSize()=%d, want %d", cfg.ChunkSize(), 48000*60)
	}

	if cfg.Mode != dfpwm.ModeCurrent {
		t.Fatalf("default mode %s, want current", cfg.Mode)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
sample_rate: 32000
chunk_seconds: 30
mode: legacy
decoder:
  backend: native
output:
  root: /tmp/out
jobs: 4
metrics:
  textfile: /tmp/dfpwm.prom
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SampleRate != 32000 || cfg.ChunkSeconds != 30 {
		t.Fatalf("unexpected rate/chunk %d/%d", cfg.SampleRate, cfg.ChunkSeconds)
	}

	if cfg.Mode != dfpwm.ModeLegacy {
		t.Fatalf("mode=%s, want legacy", cfg.Mode)
	}

	if cfg.Decoder.Backend != source.BackendNative {
		t.Fatalf("backend=%q", cfg.Decoder.Backend)
	}

	// keys missing from the file keep their defaults
	if cfg.Decoder.FFmpegPath != DefaultFFmpegPath {
		t.Fatalf("ffmpeg_path=%q, want default", cfg.Decoder.FFmpegPath)
	}

	if cfg.Output.Extension != DefaultExtension {
		t.Fatalf("extension=%q, want default", cfg.Output.Extension)
	}

	if cfg.Output.Root != "/tmp/out" || cfg.Jobs != 4 || cfg.Metrics.Textfile != "/tmp/dfpwm.prom" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{name: "bad yaml", content: "sample_rate: [", invalid: false},
		{name: "unknown mode", content: "mode: dfpwm9", invalid: false},
		{name: "rate too low", content: "sample_rate: 7999", invalid: true},
		{name: "rate too high", content: "sample_rate: 96001", invalid: true},
		{name: "chunk too short", content: "chunk_seconds: 4", invalid: true},
		{name: "chunk too long", content: "chunk_seconds: 601", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}

			if tt.invalid && !errors.Is(err, ErrInvalid) {
				t.Fatalf("err=%v, want ErrInvalid", err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"min rate", func(c *Config) { c.SampleRate = MinSampleRate }, true},
		{"max rate", func(c *Config) { c.SampleRate = MaxSampleRate }, true},
		{"min chunk", func(c *Config) { c.ChunkSeconds = MinChunkSeconds }, true},
		{"max chunk", func(c *Config) { c.ChunkSeconds = MaxChunkSeconds }, true},
		{"unknown mode", func(c *Config) { c.Mode = dfpwm.Mode(5) }, false},
		{"unknown backend", func(c *Config) { c.Decoder.Backend = "gstreamer" }, false},
		{"native without ffmpeg", func(c *Config) { c.Decoder.Backend = source.BackendNative; c.Decoder.FFmpegPath = "" }, true},
		{"ffmpeg without path", func(c *Config) { c.Decoder.Backend = source.BackendFFmpeg; c.Decoder.FFmpegPath = "" }, false},
		{"extension without dot", func(c *Config) { c.Output.Extension = "dfpwm" }, false},
		{"extension with separator", func(c *Config) { c.Output.Extension = "./x" }, false},
		{"zero jobs", func(c *Config) { c.Jobs = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !tt.ok && !errors.Is(err, ErrInvalid) {
				t.Fatalf("err=%v, want ErrInvalid", err)
			}
		})
	}
}
