package far

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Source is a random-access view of an archive's bytes. ReadAt must be
// a positioned read with no shared cursor so concurrent extractions
// cannot interleave.
type Source interface {
	io.ReaderAt
	Size() int64
}

// FileSource is a Source backed by an open file handle. Reads go
// through (*os.File).ReadAt, so a single FileSource is safe for
// concurrent use.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFile opens path for reading and captures its current size.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive %s: %w", path, err)
	}

	return &FileSource{f: f, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size returns the file size observed when the source was opened.
func (s *FileSource) Size() int64 {
	return s.size
}

// Close releases the underlying file handle.
func (s *FileSource) Close() error {
	return s.f.Close()
}

// NewMemorySource wraps an in-memory buffer as a Source. bytes.Reader
// already provides positioned reads and a fixed size.
func NewMemorySource(data []byte) Source {
	return bytes.NewReader(data)
}

// readFull returns exactly length bytes from src starting at off. It
// fails with ErrOutOfBounds when the range does not fit inside the
// source, and wraps the platform error on any short or failed read.
func readFull(src Source, off, length int64) ([]byte, error) {
	if off < 0 || length < 0 || off+length > src.Size() {
		return nil, fmt.Errorf("%w: need bytes [%d, %d) of %d", ErrOutOfBounds, off, off+length, src.Size())
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(src, off, length), buf); err != nil {
		return nil, fmt.Errorf("reading %d bytes at offset %d: %w", length, off, err)
	}

	return buf, nil
}
