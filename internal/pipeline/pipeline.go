// Package pipeline runs encoding sessions: it reads the chunks of an asset
// from a source, encodes them with one encoder and hands them to a sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cwbudde/dfpwm"
	"github.com/cwbudde/dfpwm/internal/config"
	"github.com/cwbudde/dfpwm/internal/sink"
	"github.com/cwbudde/dfpwm/internal/source"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrConfiguration is matched by failures detected before any decoding.
var ErrConfiguration = errors.New("configuration error")

var errNotRegular = errors.New("not a regular file")

// Stage names the step of a session that failed.
type Stage string

// Session stages.
const (
	StageConfig Stage = "config"
	StageDecode Stage = "decode"
	StageWrite  Stage = "write"
)

// StageError reports which asset failed at which stage.
type StageError struct {
	Stage Stage
	Asset string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed at %s stage: %v", e.Asset, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Job is one asset to encode.
type Job struct {
	Asset  string
	Config config.Config
}

// Progress is reported after every persisted chunk.
type Progress struct {
	SessionID string
	Asset     string
	Index     int
	// Total is the number of chunks if the source knows it, else 0.
	Total     int
	OutputDir string
}

// Percent returns the completion of the session, or -1 when the total is
// unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}

	return float64(p.Index) / float64(p.Total) * 100
}

// Recorder receives session metrics.
type Recorder interface {
	ChunkEncoded(mode string, samples, written int, took time.Duration)
	SessionDone(err error)
}

// Options hold the collaborators of a run. The zero value is usable.
type Options struct {
	Logger   *log.Logger
	Progress func(Progress)
	Metrics  Recorder

	// OpenSource and NewSink default to source.Open and sink.NewDir.
	OpenSource func(ctx context.Context, asset string, cfg config.Config) (source.Source, error)
	NewSink    func(dir, ext string) (sink.Sink, error)
}

// Result summarizes a finished session.
type Result struct {
	SessionID string
	Asset     string
	OutputDir string
	Chunks    int
	Samples   int
	Bytes     int
}

func openSource(ctx context.Context, asset string, cfg config.Config) (source.Source, error) {
	opts := source.Options{SampleRate: cfg.SampleRate, ChunkSeconds: cfg.ChunkSeconds}
	return source.Open(ctx, asset, opts, cfg.Decoder.Backend, cfg.Decoder.FFmpegPath)
}

func newDirSink(dir, ext string) (sink.Sink, error) {
	d, err := sink.NewDir(dir, ext)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Logger == nil {
		out.Logger = log.Default()
	}

	if out.OpenSource == nil {
		out.OpenSource = openSource
	}

	if out.NewSink == nil {
		out.NewSink = newDirSink
	}

	return out
}

// Run encodes one asset. Every chunk goes through the same encoder, so the
// predictor state continues across chunk files. Cancellation is honoured
// between chunks. A failed run leaves already written chunks in place.
func Run(ctx context.Context, job Job, opts Options) (res Result, err error) {
	o := opts.withDefaults()

	res = Result{
		SessionID: uuid.New().String(),
		Asset:     job.Asset,
		OutputDir: sink.OutputDir(job.Asset, job.Config.Output.Root),
	}

	if o.Metrics != nil {
		defer func() { o.Metrics.SessionDone(err) }()
	}

	logger := log.New(o.Logger.Writer(), fmt.Sprintf("%s[%.8s] ", o.Logger.Prefix(), res.SessionID), o.Logger.Flags())

	if err := checkJob(job); err != nil {
		return res, &StageError{Stage: StageConfig, Asset: job.Asset, Err: err}
	}

	cfg := job.Config
	logger.Printf("encoding %s -> %s (%s, %d Hz, %ds chunks)", job.Asset, res.OutputDir, cfg.Mode, cfg.SampleRate, cfg.ChunkSeconds)

	src, err := o.OpenSource(ctx, job.Asset, cfg)
	if err != nil {
		return res, &StageError{Stage: StageDecode, Asset: job.Asset, Err: asDecodeError(err)}
	}
	defer src.Close()

	enc := dfpwm.NewEncoder(cfg.Mode)
	total := src.Total()

	var out sink.Sink

	for index := 1; ; index++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%s: canceled after %d chunks: %w", job.Asset, res.Chunks, err)
		}

		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return res, &StageError{Stage: StageDecode, Asset: job.Asset, Err: asDecodeError(err)}
		}

		// the sink is created on the first chunk so failed decodes leave no directory
		if out == nil {
			out, err = o.NewSink(res.OutputDir, cfg.Output.Extension)
			if err != nil {
				return res, &StageError{Stage: StageWrite, Asset: job.Asset, Err: err}
			}
		}

		start := time.Now()
		data := enc.Encode(chunk)
		took := time.Since(start)

		if err := out.WriteChunk(index, data); err != nil {
			return res, &StageError{Stage: StageWrite, Asset: job.Asset, Err: err}
		}

		res.Chunks++
		res.Samples += len(chunk)
		res.Bytes += len(data)

		if o.Metrics != nil {
			o.Metrics.ChunkEncoded(cfg.Mode.String(), len(chunk), len(data), took)
		}

		if o.Progress != nil {
			o.Progress(Progress{
				SessionID: res.SessionID,
				Asset:     job.Asset,
				Index:     index,
				Total:     total,
				OutputDir: res.OutputDir,
			})
		}
	}

	if res.Chunks == 0 {
		err := &source.DecodeError{Path: job.Asset, Err: source.ErrNoSamples}
		return res, &StageError{Stage: StageDecode, Asset: job.Asset, Err: err}
	}

	logger.Printf("wrote %d chunks (%d bytes) to %s", res.Chunks, res.Bytes, res.OutputDir)

	return res, nil
}

func checkJob(job Job) error {
	if err := job.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	f, err := os.Open(job.Asset)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s: %w", ErrConfiguration, job.Asset, errNotRegular)
	}

	return nil
}

func asDecodeError(err error) error {
	if errors.Is(err, source.ErrDecode) {
		return err
	}

	return fmt.Errorf("%w: %w", source.ErrDecode, err)
}

// RunAll encodes independent assets concurrently, at most limit at a time.
// Each session owns its encoder. The first failure cancels the sessions
// still running; results of sessions that didn't finish are zero.
func RunAll(ctx context.Context, jobs []Job, limit int, opts Options) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	for i, job := range jobs {
		g.Go(func() error {
			res, err := Run(ctx, job, opts)
			if err != nil {
				return err
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}
