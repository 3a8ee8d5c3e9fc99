package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

var errInvalidAIFF = errors.New("invalid AIFF file")

// AIFF reads an AIFF file through go-audio/aiff. Conversion rules match WAV.
type AIFF struct {
	f     *os.File
	dec   *aiff.Decoder
	c     *chunker
	total int

	bitDepth int
	buf      *audio.IntBuffer
	pending  []int
	values   []int
}

// OpenAIFF opens the AIFF file at path.
func OpenAIFF(path string, opts Options) (*AIFF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	a, err := newAIFF(f, opts)
	if err != nil {
		f.Close()
		return nil, &DecodeError{Path: path, Err: err}
	}

	return a, nil
}

func newAIFF(f *os.File, opts Options) (*AIFF, error) {
	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidAIFF, err)
		}

		return nil, errInvalidAIFF
	}

	if dec.SampleRate != opts.SampleRate {
		return nil, fmt.Errorf("%w: file is %d Hz, want %d Hz", ErrSampleRateMismatch, dec.SampleRate, opts.SampleRate)
	}

	numChans := int(dec.NumChans)

	// read whole frames, a few thousand at a time
	const framesPerRead = 4096

	a := &AIFF{
		f:        f,
		dec:      dec,
		total:    chunkCount(int(dec.NumSampleFrames), opts.ChunkSize()),
		bitDepth: int(dec.BitDepth),
		values:   make([]int, numChans),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: numChans, SampleRate: dec.SampleRate},
			Data:           make([]int, framesPerRead*numChans),
			SourceBitDepth: int(dec.BitDepth),
		},
	}
	a.c = newChunker(a, opts.ChunkSize())

	return a, nil
}

func (a *AIFF) readSamples(dst []int8) (int, error) {
	numChans := a.buf.Format.NumChannels

	n := 0
	for n < len(dst) {
		if len(a.pending) < numChans {
			read, err := a.dec.PCMBuffer(a.buf)
			if err != nil && !errors.Is(err, io.EOF) {
				return n, fmt.Errorf("failed to read PCM data: %w", err)
			}

			// a partial trailing frame is dropped
			read -= read % numChans
			if read == 0 {
				return n, io.EOF
			}

			a.pending = a.buf.Data[:read]
		}

		// channels are converted before mixing; 8-bit frames arrive unsigned
		for ch, v := range a.pending[:numChans] {
			a.values[ch] = int(intToSample(v, a.bitDepth))
		}

		dst[n] = int8(downmix(a.values))
		a.pending = a.pending[numChans:]
		n++
	}

	return n, nil
}

// Next implements Source.
func (a *AIFF) Next() ([]int8, error) {
	return a.c.Next()
}

// Total implements Source.
func (a *AIFF) Total() int {
	return a.total
}

// Close implements Source.
func (a *AIFF) Close() error {
	return a.f.Close()
}
