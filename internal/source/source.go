// Package source turns audio assets into ordered chunks of signed 8-bit mono
// samples.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrDecode is matched by every failure to obtain samples from an asset.
	ErrDecode = errors.New("decode failed")
	// ErrNoSamples is returned when an asset decodes to nothing.
	ErrNoSamples = errors.New("no samples decoded")
	// ErrSampleRateMismatch is returned by native sources when the asset
	// rate differs from the requested one. Native sources don't resample.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
	// ErrUnsupportedFormat is returned for encodings native sources can't read.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	errNoProgress = errors.New("sample reader made no progress")
)

// DecodeError describes a failed decode of an asset.
type DecodeError struct {
	Path string
	// Stderr holds the diagnostic output of an external decoder, if any.
	Stderr string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
	if e.Stderr != "" {
		msg += "\n" + strings.TrimSpace(e.Stderr)
	}

	return msg
}

// Unwrap exposes both ErrDecode and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// Options describe the samples a source produces.
type Options struct {
	SampleRate   int
	ChunkSeconds int
}

// ChunkSize returns the nominal number of samples per chunk.
func (o Options) ChunkSize() int {
	return o.SampleRate * o.ChunkSeconds
}

// Source yields the chunks of one asset in order.
type Source interface {
	// Next returns the next chunk, io.EOF after the last one. Every chunk
	// but the last holds exactly ChunkSize samples. The returned slice is
	// only valid until the following call.
	Next() ([]int8, error)
	// Total returns the number of chunks, or 0 if unknown.
	Total() int
	Close() error
}

// Backend names.
const (
	BackendAuto   = "auto"
	BackendFFmpeg = "ffmpeg"
	BackendNative = "native"
)

// Open opens path with the given backend. The auto backend reads WAV and
// AIFF files natively and hands everything else to ffmpeg.
func Open(ctx context.Context, path string, opts Options, backend, ffmpegPath string) (Source, error) {
	native := isNative(path)

	switch backend {
	case BackendFFmpeg:
		native = false
	case BackendNative:
		if !native {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))}
		}
	case BackendAuto, "":
	default:
		return nil, fmt.Errorf("unknown decoder backend %q", backend)
	}

	var (
		src Source
		err error
	)

	switch {
	case !native:
		src, err = OpenFFmpeg(ctx, ffmpegPath, path, opts)
	case isWAV(path):
		src, err = OpenWAV(path, opts)
	default:
		src, err = OpenAIFF(path, opts)
	}

	if err != nil {
		return nil, err
	}

	return src, nil
}

func isWAV(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".wav" || ext == ".wave"
}

func isNative(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave", ".aif", ".aiff":
		return true
	default:
		return false
	}
}

// sampleReader fills dst with mono samples and returns io.EOF at the end.
type sampleReader interface {
	readSamples(dst []int8) (int, error)
}

// chunker cuts the output of a sampleReader into chunks.
type chunker struct {
	r    sampleReader
	buf  []int8
	done bool
}

func newChunker(r sampleReader, size int) *chunker {
	return &chunker{r: r, buf: make([]int8, size)}
}

func (c *chunker) Next() ([]int8, error) {
	if c.done {
		return nil, io.EOF
	}

	n := 0
	for n < len(c.buf) {
		m, err := c.r.readSamples(c.buf[n:])
		n += m

		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}

		if err != nil {
			return nil, err
		}

		if m == 0 {
			return nil, errNoProgress
		}
	}

	if n == 0 {
		return nil, io.EOF
	}

	return c.buf[:n], nil
}

func chunkCount(samples, chunkSize int) int {
	if samples <= 0 || chunkSize <= 0 {
		return 0
	}

	return (samples + chunkSize - 1) / chunkSize
}
