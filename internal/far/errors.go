package far

import "errors"

// Decode and extraction failures surface as one of these sentinels,
// usually wrapped with position context. Match with errors.Is.
var (
	// ErrInvalidSignature indicates the source is not a FAR archive of
	// a supported version.
	ErrInvalidSignature = errors.New("far: invalid signature")

	// ErrCorruptTrailer indicates the header's manifest pointer falls
	// outside the archive.
	ErrCorruptTrailer = errors.New("far: corrupt manifest pointer")

	// ErrTruncatedManifest indicates the manifest ended before the
	// declared number of entries could be decoded.
	ErrTruncatedManifest = errors.New("far: truncated manifest")

	// ErrInvalidEntryName indicates an entry name is not valid UTF-8.
	ErrInvalidEntryName = errors.New("far: invalid entry name")

	// ErrEntryOutOfBounds indicates a manifest entry points past the
	// end of the archive.
	ErrEntryOutOfBounds = errors.New("far: entry exceeds archive size")

	// ErrOutOfBounds indicates a read outside the archive. For an
	// archive that opened successfully this is only reachable if the
	// underlying source shrank afterwards.
	ErrOutOfBounds = errors.New("far: read outside bounds of archive")
)
