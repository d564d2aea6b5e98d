package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calumj/fardb/internal/far"
)

// Inserter handles batched insertion of archive manifests.
type Inserter struct {
	catalog   *Catalog
	batchSize int
}

// InsertOptions configures manifest insertion behavior.
type InsertOptions struct {
	// BatchSize determines how many entry rows to insert per transaction
	BatchSize int
}

// DefaultInsertOptions returns sensible defaults for manifest insertion.
func DefaultInsertOptions() *InsertOptions {
	return &InsertOptions{
		BatchSize: 1000,
	}
}

// NewInserter creates a new inserter with the given catalog and options.
func NewInserter(catalog *Catalog, options *InsertOptions) *Inserter {
	if options == nil {
		options = DefaultInsertOptions()
	}

	return &Inserter{
		catalog:   catalog,
		batchSize: options.BatchSize,
	}
}

// ArchiveRecord is one scanned archive ready for insertion.
type ArchiveRecord struct {
	// Path is the archive's filesystem path, unique within the catalog.
	Path string

	// Version is the decoded format version.
	Version uint32

	// SizeBytes is the archive's total size.
	SizeBytes int64

	// Entries is the decoded manifest in on-disk order.
	Entries []far.Entry
}

// InsertArchive records an archive and its full manifest, replacing
// any previous scan of the same path. Returns the archive's row id.
func (in *Inserter) InsertArchive(ctx context.Context, rec *ArchiveRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("archive record cannot be nil")
	}

	if rec.Path == "" {
		return 0, fmt.Errorf("archive path cannot be empty")
	}

	// A re-scan replaces the old rows; entries cascade.
	if _, err := in.catalog.Exec(ctx, `DELETE FROM archives WHERE path = ?`, rec.Path); err != nil {
		return 0, fmt.Errorf("removing previous scan of %s: %w", rec.Path, err)
	}

	result, err := in.catalog.Exec(ctx,
		`INSERT INTO archives (path, version, size_bytes, entry_count) VALUES (?, ?, ?, ?)`,
		rec.Path, rec.Version, rec.SizeBytes, len(rec.Entries))
	if err != nil {
		return 0, fmt.Errorf("inserting archive %s: %w", rec.Path, err)
	}

	archiveID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolving archive id for %s: %w", rec.Path, err)
	}

	for i := 0; i < len(rec.Entries); i += in.batchSize {
		end := i + in.batchSize
		if end > len(rec.Entries) {
			end = len(rec.Entries)
		}

		if err := in.insertBatch(ctx, archiveID, i, rec.Entries[i:end]); err != nil {
			return 0, fmt.Errorf("inserting entries %d-%d for %s: %w", i, end-1, rec.Path, err)
		}
	}

	slog.Debug("Archive cataloged", "path", rec.Path, "entries", len(rec.Entries), "archive_id", archiveID)

	return archiveID, nil
}

// insertBatch inserts a run of entries inside a single transaction.
func (in *Inserter) insertBatch(ctx context.Context, archiveID int64, firstIndex int, entries []far.Entry) error {
	tx, err := in.catalog.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (archive_id, entry_index, name, offset, length) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, archiveID, firstIndex+i, e.Name, e.Offset, e.Length); err != nil {
			return fmt.Errorf("inserting entry %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entry batch: %w", err)
	}

	return nil
}
