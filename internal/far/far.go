// Package far reads The Sims FAR v1 archives (.far files). A FAR
// archive bundles many files into one: an eight byte signature and two
// 32-bit header fields at the start of the file, the archived file
// contents concatenated in the middle, and a manifest listing every
// contained file at the offset the header records. All numeric fields
// are little-endian.
//
// An Archive is immutable once opened and safe for concurrent use;
// extraction re-reads the source on every call.
package far

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const (
	// Signature is the magic string at the start of every FAR archive.
	Signature = "FAR!byAZ"

	// SupportedVersion is the only format version this package decodes.
	SupportedVersion = 1

	// header = signature + u32 version + u32 manifest offset
	headerSize = 16
)

// Archive is an opened FAR archive: a byte source plus its fully
// decoded manifest. Any decode failure during Open means no Archive is
// returned at all.
type Archive struct {
	src     Source
	version uint32
	entries []Entry
	owned   bool
}

// Entry describes one archived file. Entries are plain values;
// extraction goes through Archive.Extract so an entry never holds a
// reference back into the archive.
type Entry struct {
	// Name is the archive-internal file name, possibly including
	// directories. Names are not guaranteed unique.
	Name string

	// Offset is the byte offset of the file's contents from the start
	// of the archive.
	Offset uint32

	// Length is the file's size in bytes.
	Length uint32
}

// Open opens the archive at path and decodes its manifest. The
// returned Archive owns the file handle; release it with Close.
func Open(path string) (*Archive, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}

	a, err := New(src)
	if err != nil {
		src.Close()
		return nil, err
	}

	a.owned = true
	return a, nil
}

// New decodes an archive from src. The returned Archive does not own
// src; the caller remains responsible for closing it, and must keep it
// open for as long as the Archive is in use.
func New(src Source) (*Archive, error) {
	version, manifestOffset, err := decodeHeader(src)
	if err != nil {
		return nil, err
	}

	entries, err := decodeManifest(src, manifestOffset)
	if err != nil {
		return nil, err
	}

	slog.Debug("FAR manifest decoded", "version", version, "entries", len(entries), "manifest_offset", manifestOffset)

	return &Archive{src: src, version: version, entries: entries}, nil
}

// decodeHeader validates the signature and version and returns the
// manifest pointer. It never reads entry data.
func decodeHeader(src Source) (version, manifestOffset uint32, err error) {
	buf, err := readFull(src, 0, headerSize)
	if err != nil {
		if errors.Is(err, ErrOutOfBounds) {
			return 0, 0, fmt.Errorf("%w: %d bytes is too small for a FAR header", ErrInvalidSignature, src.Size())
		}
		return 0, 0, err
	}

	if string(buf[:len(Signature)]) != Signature {
		return 0, 0, fmt.Errorf("%w: got %q", ErrInvalidSignature, buf[:len(Signature)])
	}

	version = binary.LittleEndian.Uint32(buf[8:])
	if version != SupportedVersion {
		return 0, 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidSignature, version)
	}

	manifestOffset = binary.LittleEndian.Uint32(buf[12:])
	if int64(manifestOffset) >= src.Size() {
		return 0, 0, fmt.Errorf("%w: manifest offset %d in a %d byte archive", ErrCorruptTrailer, manifestOffset, src.Size())
	}

	return version, manifestOffset, nil
}

// Version returns the archive's format version, always 1 for archives
// this package opens successfully.
func (a *Archive) Version() uint32 {
	return a.version
}

// Size returns the total byte length of the archive.
func (a *Archive) Size() int64 {
	return a.src.Size()
}

// Entries returns the manifest in on-disk order. The slice is shared;
// callers must not modify it.
func (a *Archive) Entries() []Entry {
	return a.entries
}

// Extract reads the entry's bytes from the archive. Every call
// re-reads the source, returns exactly Length bytes, and is safe to
// make concurrently with other extractions.
func (a *Archive) Extract(e Entry) ([]byte, error) {
	data, err := readFull(a.src, int64(e.Offset), int64(e.Length))
	if err != nil {
		return nil, fmt.Errorf("extracting %q: %w", e.Name, err)
	}
	return data, nil
}

// Close releases the byte source if the Archive owns it (archives from
// Open do, archives from New do not).
func (a *Archive) Close() error {
	if !a.owned {
		return nil
	}
	if c, ok := a.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
