package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatALaw       = 6
	wavFormatMuLaw      = 7
	wavFormatExtensible = 0xFFFE
)

var errDataBeforeFmt = errors.New("data chunk before fmt chunk")

// WAV reads a RIFF/WAVE file without external tools. Channels are averaged
// to mono; the file rate must match the requested rate.
type WAV struct {
	f      *os.File
	data   io.Reader
	c      *chunker
	total  int
	format *audio.Format

	blockAlign int
	frame      []byte
	values     []int
	decode     func([]byte) int8
}

// OpenWAV opens the WAV file at path.
func OpenWAV(path string, opts Options) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	w, err := newWAV(f, opts)
	if err != nil {
		f.Close()
		return nil, &DecodeError{Path: path, Err: err}
	}

	return w, nil
}

func newWAV(f *os.File, opts Options) (*WAV, error) {
	w := &WAV{f: f}
	parser := riff.New(f)

	id, _, err := parser.IDnSize()
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk ID and size: %w", err)
	}

	if id != riff.RiffID {
		return nil, fmt.Errorf("%s - %w", id, riff.ErrFmtNotSupported)
	}

	if err := binary.Read(f, binary.BigEndian, &parser.Format); err != nil {
		return nil, fmt.Errorf("failed to read format: %w", err)
	}

	if parser.Format != riff.WavFormatID {
		return nil, fmt.Errorf("%s - %w", parser.Format, riff.ErrFmtNotSupported)
	}

	var (
		formatTag uint16
		bitDepth  int
		dataSize  int
	)

	for w.data == nil {
		chunk, err := parser.NextChunk()
		if err != nil {
			return nil, fmt.Errorf("failed to find PCM data: %w", err)
		}

		switch chunk.ID {
		case riff.FmtID:
			formatTag, bitDepth, err = w.readFmtChunk(chunk)
			if err != nil {
				return nil, err
			}
		case riff.DataFormatID:
			if w.format == nil {
				return nil, errDataBeforeFmt
			}

			w.data = chunk.R
			dataSize = chunk.Size
		default:
			chunk.Drain()
		}
	}

	if w.format.SampleRate != opts.SampleRate {
		return nil, fmt.Errorf("%w: file is %d Hz, want %d Hz", ErrSampleRateMismatch, w.format.SampleRate, opts.SampleRate)
	}

	w.decode, err = wavSampleDecodeFunc(formatTag, bitDepth)
	if err != nil {
		return nil, err
	}

	w.blockAlign = bytesPerSample(bitDepth) * w.format.NumChannels
	w.frame = make([]byte, w.blockAlign)
	w.values = make([]int, w.format.NumChannels)
	w.total = chunkCount(dataSize/w.blockAlign, opts.ChunkSize())
	w.c = newChunker(w, opts.ChunkSize())

	return w, nil
}

func (w *WAV) readFmtChunk(chunk *riff.Chunk) (uint16, int, error) {
	var hdr struct {
		FormatTag      uint16
		NumChannels    uint16
		SampleRate     uint32
		AvgBytesPerSec uint32
		BlockAlign     uint16
		BitsPerSample  uint16
	}

	if err := chunk.ReadLE(&hdr); err != nil {
		return 0, 0, fmt.Errorf("failed to read fmt chunk: %w", err)
	}

	formatTag := hdr.FormatTag
	if formatTag == wavFormatExtensible && chunk.Size >= 40 {
		var ext struct {
			ExtraSize          uint16
			ValidBitsPerSample uint16
			ChannelMask        uint32
			SubFormat          [16]byte
		}

		if err := chunk.ReadLE(&ext); err != nil {
			return 0, 0, fmt.Errorf("failed to read fmt extension: %w", err)
		}

		formatTag = binary.LittleEndian.Uint16(ext.SubFormat[:2])
	}

	chunk.Drain()

	if hdr.NumChannels < 1 {
		return 0, 0, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, hdr.NumChannels)
	}

	w.format = &audio.Format{
		NumChannels: int(hdr.NumChannels),
		SampleRate:  int(hdr.SampleRate),
	}

	return formatTag, int(hdr.BitsPerSample), nil
}

// Format returns the format of the file.
func (w *WAV) Format() *audio.Format {
	return w.format
}

func (w *WAV) readSamples(dst []int8) (int, error) {
	for n := range dst {
		// a truncated last frame is padding, not a sample
		if _, err := io.ReadFull(w.data, w.frame); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return n, io.EOF
			}

			return n, fmt.Errorf("failed to read PCM data: %w", err)
		}

		step := w.blockAlign / len(w.values)
		for ch := range w.values {
			w.values[ch] = int(w.decode(w.frame[ch*step : (ch+1)*step]))
		}

		dst[n] = int8(downmix(w.values))
	}

	return len(dst), nil
}

// Next implements Source.
func (w *WAV) Next() ([]int8, error) {
	return w.c.Next()
}

// Total implements Source.
func (w *WAV) Total() int {
	return w.total
}

// Close implements Source.
func (w *WAV) Close() error {
	return w.f.Close()
}

func bytesPerSample(bitDepth int) int {
	return (bitDepth-1)/8 + 1
}

// wavSampleDecodeFunc returns a function converting the little-endian bytes
// of one sample to a signed 8-bit value.
func wavSampleDecodeFunc(formatTag uint16, bitDepth int) (func([]byte) int8, error) {
	switch formatTag {
	case wavFormatPCM:
		switch {
		case bitDepth == 8:
			// 8bit values are unsigned
			return func(b []byte) int8 { return unsignedToSample(int(b[0])) }, nil
		case bitDepth > 8 && bitDepth <= 16:
			return func(b []byte) int8 {
				return intToSample(int(int16(binary.LittleEndian.Uint16(b))), 16)
			}, nil
		case bitDepth > 16 && bitDepth <= 24:
			return func(b []byte) int8 { return intToSample(int(audio.Int24LETo32(b)), 24) }, nil
		case bitDepth > 24 && bitDepth <= 32:
			return func(b []byte) int8 {
				return intToSample(int(int32(binary.LittleEndian.Uint32(b))), 32)
			}, nil
		}
	case wavFormatIEEEFloat:
		switch bitDepth {
		case 32:
			return func(b []byte) int8 {
				return floatToSample(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
			}, nil
		case 64:
			return func(b []byte) int8 {
				return floatToSample(math.Float64frombits(binary.LittleEndian.Uint64(b)))
			}, nil
		}
	case wavFormatALaw:
		if bitDepth == 8 {
			return func(b []byte) int8 { return intToSample(int(decodeALawSample(b[0])), 16) }, nil
		}
	case wavFormatMuLaw:
		if bitDepth == 8 {
			return func(b []byte) int8 { return intToSample(int(decodeMuLawSample(b[0])), 16) }, nil
		}
	}

	return nil, fmt.Errorf("%w: format tag %d, %d bits", ErrUnsupportedFormat, formatTag, bitDepth)
}
