package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/calumj/fardb/internal/export"
	"github.com/calumj/fardb/internal/far"
	"github.com/calumj/fardb/internal/utils"
	"github.com/spf13/cobra"
)

type ExtractionStats struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalArchives  int
	FilesExtracted int
	FilesSkipped   int
	BytesWritten   int64
	Errors         int
}

var (
	perArchiveDirs bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive>...",
	Short: "Extract archive entries to the output directory",
	Long: `Extract reads each archive's manifest and writes its entries to the
output directory, preserving archive-internal directory structure.

By default every entry is extracted. Use --files to extract only the
named entries. With --subdirs, each archive gets its own subdirectory
named after the archive file instead of sharing one output tree.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := &ExtractionStats{
			StartTime:     time.Now(),
			TotalArchives: len(args),
		}

		totalEntries := 0
		for _, path := range args {
			archive, err := far.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			totalEntries += len(archive.Entries())
			archive.Close()
		}

		progress := utils.NewProgress(totalEntries, !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))
		done := 0

		for _, path := range args {
			archive, err := far.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}

			outDir := cfg.Output
			if perArchiveDirs {
				base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				outDir = filepath.Join(cfg.Output, base)
			}

			exporter := export.NewExporter(archive, outDir)
			callback := func(current, total int, description string) {
				progress.Update(done+current, description)
			}

			var exported export.Stats
			if len(cfg.Files) > 0 {
				exported, err = exporter.ExportFiles(cfg.Files, callback)
			} else {
				exported, err = exporter.ExportAll(callback)
			}
			if err != nil {
				archive.Close()
				slog.Error("Extraction failed", "archive", path, "error", err)
				stats.Errors++
				continue
			}

			done += len(archive.Entries())
			stats.FilesExtracted += exported.FileCount
			stats.FilesSkipped += exported.Skipped
			stats.BytesWritten += exported.TotalBytes

			slog.Info("Archive extracted", "archive", path, "files", exported.FileCount, "bytes", exported.TotalBytes)

			if err := archive.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", path, err)
			}
		}

		progress.Finish()
		stats.EndTime = time.Now()

		duration := stats.EndTime.Sub(stats.StartTime)
		var fileRate float64
		if seconds := duration.Seconds(); seconds > 0 {
			fileRate = float64(stats.FilesExtracted) / seconds
		}

		fmt.Printf("Archives processed: %d\n", stats.TotalArchives)
		fmt.Printf("Files extracted: %s\n", utils.Number(int64(stats.FilesExtracted)))
		fmt.Printf("Files skipped: %d\n", stats.FilesSkipped)
		fmt.Printf("Bytes written: %s\n", utils.Bytes(stats.BytesWritten))
		fmt.Printf("Errors: %d\n", stats.Errors)
		fmt.Printf("Duration: %s\n", utils.Duration(duration))
		fmt.Printf("Extraction rate: %s files/sec\n", utils.Rate(fileRate))

		if stats.Errors > 0 {
			return fmt.Errorf("%d archive(s) failed to extract", stats.Errors)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&perArchiveDirs, "subdirs", false, "extract each archive into its own subdirectory")
}
