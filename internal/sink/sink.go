// Package sink persists encoded chunks.
package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrIO is matched by every failure to persist a chunk.
var ErrIO = errors.New("chunk write failed")

var errBadIndex = errors.New("chunk index must be positive")

// Sink stores encoded chunks by their 1-based index.
type Sink interface {
	WriteChunk(index int, data []byte) error
}

// Dir writes every chunk to its own file, <index><ext>, inside a directory.
type Dir struct {
	dir string
	ext string
}

// NewDir creates dir if needed and returns a sink writing into it.
func NewDir(dir, ext string) (*Dir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %w", ErrIO, dir, err)
	}

	return &Dir{dir: dir, ext: ext}, nil
}

// Path returns the directory the sink writes to.
func (d *Dir) Path() string {
	return d.dir
}

// ChunkPath returns the file a chunk is written to.
func (d *Dir) ChunkPath(index int) string {
	return filepath.Join(d.dir, strconv.Itoa(index)+d.ext)
}

// WriteChunk writes data to a temporary file, syncs it and renames it into
// place, so a chunk file is either complete or absent.
func (d *Dir) WriteChunk(index int, data []byte) error {
	if index < 1 {
		return fmt.Errorf("%w: %w: %d", ErrIO, errBadIndex, index)
	}

	path := d.ChunkPath(index)

	tmp, err := os.CreateTemp(d.dir, "."+strconv.Itoa(index)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}

	if err := writeAndSync(tmp, data); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}

	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// OutputDir returns the chunk directory for asset: <stem>_chunks, placed
// under root, or next to the asset when root is empty.
func OutputDir(asset, root string) string {
	base := filepath.Base(asset)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if root == "" {
		root = filepath.Dir(asset)
	}

	return filepath.Join(root, stem+"_chunks")
}
