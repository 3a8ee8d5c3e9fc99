package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// FFmpeg is a source backed by an ffmpeg process. The whole asset is decoded
// before the first chunk is handed out, so a failing decode never yields
// partial output.
type FFmpeg struct {
	pcm   []byte
	c     *chunker
	total int
}

// FFmpegArgs returns the arguments that make ffmpeg write path as raw signed
// 8-bit mono PCM at sampleRate to stdout.
func FFmpegArgs(path string, sampleRate int) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s8",
		"pipe:1",
	}
}

// OpenFFmpeg decodes path with the ffmpeg binary at ffmpegPath.
func OpenFFmpeg(ctx context.Context, ffmpegPath, path string, opts Options) (*FFmpeg, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, ffmpegPath, FFmpegArgs(path, opts.SampleRate)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &DecodeError{
			Path:   path,
			Stderr: stderr.String(),
			Err:    fmt.Errorf("ffmpeg failed: %w", err),
		}
	}

	if stdout.Len() == 0 {
		return nil, &DecodeError{Path: path, Stderr: stderr.String(), Err: ErrNoSamples}
	}

	return newFFmpeg(stdout.Bytes(), opts.ChunkSize()), nil
}

func newFFmpeg(pcm []byte, chunkSize int) *FFmpeg {
	src := &FFmpeg{
		pcm:   pcm,
		total: chunkCount(len(pcm), chunkSize),
	}
	src.c = newChunker(src, chunkSize)

	return src
}

func (f *FFmpeg) readSamples(dst []int8) (int, error) {
	if len(f.pcm) == 0 {
		return 0, io.EOF
	}

	n := min(len(dst), len(f.pcm))
	for i, b := range f.pcm[:n] {
		dst[i] = int8(b)
	}

	f.pcm = f.pcm[n:]

	return n, nil
}

// Next implements Source.
func (f *FFmpeg) Next() ([]int8, error) {
	return f.c.Next()
}

// Total implements Source.
func (f *FFmpeg) Total() int {
	return f.total
}

// Close implements Source.
func (f *FFmpeg) Close() error {
	f.pcm = nil
	return nil
}
