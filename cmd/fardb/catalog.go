package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/calumj/fardb/internal/catalog"
	"github.com/calumj/fardb/internal/far"
	"github.com/calumj/fardb/internal/utils"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <archive>...",
	Short: "Scan archive manifests into the SQLite catalog",
	Long: `Catalog decodes each archive's manifest and records every entry in
the SQLite catalog database. Re-scanning an archive replaces its
previous rows.

The catalog makes questions like "which archive holds ui/menu.bmp"
answerable with plain SQL via the query command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		start := time.Now()

		db, err := catalog.Open(catalog.DefaultOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer db.Close()

		inserter := catalog.NewInserter(db, nil)
		progress := utils.NewProgress(len(args), !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))

		var totalEntries int64
		for i, path := range args {
			progress.Update(i+1, filepath.Base(path))

			archive, err := far.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}

			rec := &catalog.ArchiveRecord{
				Path:      abs,
				Version:   archive.Version(),
				SizeBytes: archive.Size(),
				Entries:   archive.Entries(),
			}

			if _, err := inserter.InsertArchive(ctx, rec); err != nil {
				archive.Close()
				return fmt.Errorf("cataloging %s: %w", path, err)
			}

			totalEntries += int64(len(rec.Entries))
			slog.Info("Archive cataloged", "archive", path, "entries", len(rec.Entries))

			if err := archive.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", path, err)
			}
		}

		progress.Finish()

		fmt.Printf("Archives cataloged: %d\n", len(args))
		fmt.Printf("Entries recorded: %s\n", utils.Number(totalEntries))
		fmt.Printf("Duration: %s\n", utils.Duration(time.Since(start)))
		fmt.Println("Try running: fardb query --tables")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
