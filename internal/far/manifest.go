package far

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"
)

// Fixed-width portion of a manifest record: u32 length, u32 length
// repeated, u32 offset, u32 name length. The name bytes follow.
const entryFixedSize = 16

// decodeManifest reads the entry count at manifestOffset and then that
// many variable-length records, strictly forward. Every record is
// bounds-checked here so a successfully opened archive never fails
// extraction on bounds.
func decodeManifest(src Source, manifestOffset uint32) ([]Entry, error) {
	size := src.Size()
	r := io.NewSectionReader(src, int64(manifestOffset), size-int64(manifestOffset))

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading entry count: %v", ErrTruncatedManifest, err)
	}

	// A record is at least entryFixedSize bytes, so a declared count
	// the remaining bytes cannot possibly hold is rejected up front.
	remaining := size - int64(manifestOffset) - 4
	if int64(count) > remaining/entryFixedSize {
		return nil, fmt.Errorf("%w: %d entries declared but only %d manifest bytes remain", ErrTruncatedManifest, count, remaining)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := decodeEntry(r, size)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d of %d: %w", i, count, err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// decodeEntry reads one record at the reader's current position,
// leaving the cursor at the end of the record's name field.
func decodeEntry(r io.Reader, archiveSize int64) (Entry, error) {
	var rec struct {
		Length1    uint32
		Length2    uint32
		Offset     uint32
		NameLength uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrTruncatedManifest, err)
	}

	if int64(rec.NameLength) > archiveSize {
		return Entry{}, fmt.Errorf("%w: %d byte name in a %d byte archive", ErrTruncatedManifest, rec.NameLength, archiveSize)
	}

	name := make([]byte, rec.NameLength)
	if _, err := io.ReadFull(r, name); err != nil {
		return Entry{}, fmt.Errorf("%w: reading %d byte name: %v", ErrTruncatedManifest, rec.NameLength, err)
	}

	if !utf8.Valid(name) {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidEntryName, name)
	}

	// The format stores the length twice; every archive in the wild
	// keeps them identical. The first copy is authoritative.
	if rec.Length1 != rec.Length2 {
		slog.Debug("entry length fields disagree", "name", string(name), "length1", rec.Length1, "length2", rec.Length2)
	}

	if int64(rec.Offset)+int64(rec.Length1) > archiveSize {
		return Entry{}, fmt.Errorf("%w: %q occupies [%d, %d) in a %d byte archive",
			ErrEntryOutOfBounds, name, rec.Offset, int64(rec.Offset)+int64(rec.Length1), archiveSize)
	}

	return Entry{
		Name:   string(name),
		Offset: rec.Offset,
		Length: rec.Length1,
	}, nil
}
