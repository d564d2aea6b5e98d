package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/calumj/fardb/internal/far"
)

// Extractor is the slice of the archive API the exporter needs.
// *far.Archive satisfies it.
type Extractor interface {
	Entries() []far.Entry
	Extract(e far.Entry) ([]byte, error)
}

// Exporter writes archive entries out to a directory on disk.
type Exporter struct {
	archive   Extractor
	outputDir string
}

// NewExporter creates a new entry exporter rooted at outputDir.
func NewExporter(archive Extractor, outputDir string) *Exporter {
	return &Exporter{
		archive:   archive,
		outputDir: outputDir,
	}
}

// ProgressCallback is called to report export progress.
type ProgressCallback func(current int, total int, description string)

// Stats summarizes a completed export.
type Stats struct {
	FileCount  int
	TotalBytes int64
	Skipped    int
}

// ExportAll extracts every entry in the archive to the output
// directory, preserving archive-internal directory structure.
func (e *Exporter) ExportAll(progressCallback ProgressCallback) (Stats, error) {
	return e.export(e.archive.Entries(), progressCallback)
}

// ExportFiles extracts only the entries whose names appear in names.
// An entry name that matches nothing in the archive is an error, since
// silently producing fewer files than asked for is worse. Duplicate
// names in the archive all match and are all written, last one wins.
func (e *Exporter) ExportFiles(names []string, progressCallback ProgressCallback) (Stats, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = false
	}

	var selected []far.Entry
	for _, entry := range e.archive.Entries() {
		if _, ok := wanted[entry.Name]; ok {
			wanted[entry.Name] = true
			selected = append(selected, entry)
		}
	}

	for name, found := range wanted {
		if !found {
			return Stats{}, fmt.Errorf("entry not found in archive: %s", name)
		}
	}

	return e.export(selected, progressCallback)
}

func (e *Exporter) export(entries []far.Entry, progressCallback ProgressCallback) (Stats, error) {
	var stats Stats

	if len(entries) == 0 {
		return stats, nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return stats, fmt.Errorf("creating output directory: %w", err)
	}

	total := len(entries)
	for i, entry := range entries {
		outputPath, err := e.resolveOutputPath(entry.Name)
		if err != nil {
			slog.Warn("Skipping entry with unsafe name", "name", entry.Name, "error", err)
			stats.Skipped++
			continue
		}

		data, err := e.archive.Extract(entry)
		if err != nil {
			return stats, fmt.Errorf("extracting %s: %w", entry.Name, err)
		}

		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return stats, fmt.Errorf("creating directory for %s: %w", entry.Name, err)
		}

		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return stats, fmt.Errorf("writing file %s: %w", outputPath, err)
		}

		slog.Debug("Exported entry", "name", entry.Name, "output", outputPath, "bytes", len(data))

		stats.FileCount++
		stats.TotalBytes += int64(len(data))

		if progressCallback != nil {
			progressCallback(i+1, total, entry.Name)
		}
	}

	return stats, nil
}

// resolveOutputPath maps an archive-internal name to a path under the
// output directory, rejecting names that would escape it. Archive
// names are untrusted input.
func (e *Exporter) resolveOutputPath(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if rel == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("unsafe entry name %q", name)
	}
	return filepath.Join(e.outputDir, rel), nil
}
