package source

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeFFmpeg writes a shell script standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}

	return path
}

func TestFFmpegArgs(t *testing.T) {
	got := strings.Join(FFmpegArgs("in.mp3", 48000), " ")
	want := "-hide_banner -loglevel error -i in.mp3 -ac 1 -ar 48000 -f s8 pipe:1"

	if got != want {
		t.Fatalf("FFmpegArgs()=%q, want %q", got, want)
	}
}

func TestFFmpegChunks(t *testing.T) {
	pcm := make([]byte, 23)
	for i := range pcm {
		pcm[i] = byte(i * 11)
	}

	src := newFFmpeg(pcm, 10)
	if src.Total() != 3 {
		t.Fatalf("Total()=%d, want 3", src.Total())
	}

	got := flatten(drain(t, src))
	if len(got) != len(pcm) {
		t.Fatalf("got %d samples, want %d", len(got), len(pcm))
	}

	for i := range pcm {
		if got[i] != int8(pcm[i]) {
			t.Fatalf("sample[%d]=%d, want %d", i, got[i], int8(pcm[i]))
		}
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenFFmpegFailure(t *testing.T) {
	bin := fakeFFmpeg(t, "echo 'Invalid data found when processing input' >&2\nexit 1\n")

	_, err := OpenFFmpeg(context.Background(), bin, "broken.mp3", Options{SampleRate: 8000, ChunkSeconds: 5})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err=%v, want ErrDecode", err)
	}

	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("err=%T, want *DecodeError", err)
	}

	if !strings.Contains(decErr.Stderr, "Invalid data found") {
		t.Fatalf("stderr not captured: %q", decErr.Stderr)
	}

	if decErr.Path != "broken.mp3" {
		t.Fatalf("Path=%q", decErr.Path)
	}
}

func TestOpenFFmpegNoSamples(t *testing.T) {
	bin := fakeFFmpeg(t, "exit 0\n")

	_, err := OpenFFmpeg(context.Background(), bin, "empty.mp3", Options{SampleRate: 8000, ChunkSeconds: 5})
	if !errors.Is(err, ErrNoSamples) || !errors.Is(err, ErrDecode) {
		t.Fatalf("err=%v, want ErrNoSamples", err)
	}
}

func TestOpenFFmpegStdout(t *testing.T) {
	// 0x80 is -128, 0x7f is 127
	bin := fakeFFmpeg(t, "printf '\\200\\177\\000\\001'\n")

	src, err := OpenFFmpeg(context.Background(), bin, "in.mp3", Options{SampleRate: 8000, ChunkSeconds: 5})
	if err != nil {
		t.Fatalf("OpenFFmpeg: %v", err)
	}
	defer src.Close()

	got := flatten(drain(t, src))

	want := []int8{-128, 127, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestOpenFFmpegReal(t *testing.T) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}

	path := writeWAV(t, "in.wav", wavFormatPCM, 1, 8000, 16, le16(0, 256, 512, -256, 32767, -32768, 0, 0))

	src, err := OpenFFmpeg(context.Background(), ffmpeg, path, Options{SampleRate: 8000, ChunkSeconds: 5})
	if err != nil {
		t.Fatalf("OpenFFmpeg: %v", err)
	}
	defer src.Close()

	got := flatten(drain(t, src))
	if len(got) != 8 {
		t.Fatalf("got %d samples, want 8", len(got))
	}
}
