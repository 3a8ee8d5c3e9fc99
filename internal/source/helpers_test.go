package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writeWAV writes a canonical 44-byte-header WAV file holding data.
func writeWAV(t *testing.T, name string, formatTag uint16, numChans, sampleRate, bitDepth int, data []byte) string {
	t.Helper()

	blockAlign := numChans * bytesPerSample(bitDepth)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, formatTag)
	binary.Write(&buf, binary.LittleEndian, uint16(numChans))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitDepth))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write wav fixture: %v", err)
	}

	return path
}

func le16(values ...int16) []byte {
	out := make([]byte, 0, 2*len(values))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}

	return out
}

// drain collects every chunk of src.
func drain(t *testing.T, src Source) [][]int8 {
	t.Helper()

	var chunks [][]int8

	for {
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			return chunks
		}

		if err != nil {
			t.Fatalf("Next: %v", err)
		}

		chunks = append(chunks, append([]int8(nil), chunk...))
	}
}

func flatten(chunks [][]int8) []int8 {
	var out []int8
	for _, c := range chunks {
		out = append(out, c...)
	}

	return out
}
