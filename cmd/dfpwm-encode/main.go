// This tool encodes audio files into DFPWM chunk files. Each asset is split
// into fixed-duration chunks written as <stem>_chunks/<n>.dfpwm.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"

	"github.com/cwbudde/dfpwm"
	"github.com/cwbudde/dfpwm/internal/config"
	"github.com/cwbudde/dfpwm/internal/metrics"
	"github.com/cwbudde/dfpwm/internal/pipeline"
)

var errMissingAsset = errors.New("missing asset argument")

const usage = `usage: dfpwm-encode [flags] <asset>...

Encodes each asset into DFPWM chunk files. Flags override the config file.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err == nil {
		return
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}

	if errors.Is(err, errMissingAsset) {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	log.Fatal(err)
}

func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	flagSet := flag.NewFlagSet("dfpwm-encode", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	configPath := flagSet.String("config", "", "YAML config file")
	sampleRate := flagSet.Int("rate", 0, fmt.Sprintf("sample rate in hertz, %d-%d (default %d)", config.MinSampleRate, config.MaxSampleRate, config.DefaultSampleRate))
	chunkSeconds := flagSet.Int("chunk", 0, fmt.Sprintf("chunk length in seconds, %d-%d (default %d)", config.MinChunkSeconds, config.MaxChunkSeconds, config.DefaultChunkSeconds))
	backend := flagSet.String("decoder", "", "decoder backend: auto, ffmpeg or native (default auto)")
	ffmpegPath := flagSet.String("ffmpeg", "", "path to the ffmpeg binary (default ffmpeg)")
	outRoot := flagSet.String("out", "", "directory for the chunk directories (default next to each asset)")
	ext := flagSet.String("ext", "", "chunk file extension (default .dfpwm)")
	jobs := flagSet.Int("jobs", 0, "number of assets encoded concurrently (default 1)")
	textfile := flagSet.String("metrics-textfile", "", "write Prometheus metrics to this file after the run")
	quiet := flagSet.Bool("quiet", false, "don't print per-chunk progress")

	var mode dfpwm.Mode

	modeSet := false
	flagSet.Func("mode", "codec mode: current or legacy (default current)", func(s string) error {
		modeSet = true
		return mode.UnmarshalText([]byte(s))
	})

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if flagSet.NArg() == 0 {
		return errMissingAsset
	}

	cfg := config.Default()

	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}

		cfg = *loaded
	}

	overrideInt(&cfg.SampleRate, *sampleRate)
	overrideInt(&cfg.ChunkSeconds, *chunkSeconds)
	overrideInt(&cfg.Jobs, *jobs)
	overrideString(&cfg.Decoder.Backend, *backend)
	overrideString(&cfg.Decoder.FFmpegPath, *ffmpegPath)
	overrideString(&cfg.Output.Root, *outRoot)
	overrideString(&cfg.Output.Extension, *ext)
	overrideString(&cfg.Metrics.Textfile, *textfile)

	if modeSet {
		cfg.Mode = mode
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	collector := metrics.New()
	opts := pipeline.Options{
		Logger:  log.New(errOut, "dfpwm-encode: ", log.LstdFlags|log.Lmsgprefix),
		Metrics: collector,
	}

	var mu sync.Mutex

	if !*quiet {
		opts.Progress = func(p pipeline.Progress) {
			mu.Lock()
			defer mu.Unlock()

			if p.Total > 0 {
				fmt.Fprintf(out, "%s: encoding chunk %d/%d (%.0f%%)\n", p.Asset, p.Index, p.Total, p.Percent())
			} else {
				fmt.Fprintf(out, "%s: encoding chunk %d\n", p.Asset, p.Index)
			}
		}
	}

	jobList := make([]pipeline.Job, 0, flagSet.NArg())
	for _, asset := range flagSet.Args() {
		jobList = append(jobList, pipeline.Job{Asset: asset, Config: cfg})
	}

	results, runErr := pipeline.RunAll(ctx, jobList, cfg.Jobs, opts)

	for _, res := range results {
		if res.Chunks > 0 {
			fmt.Fprintf(out, "done: %s -> %s (%d chunks)\n", res.Asset, res.OutputDir, res.Chunks)
		}
	}

	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return errors.Join(runErr, err)
		}
	}

	return runErr
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
