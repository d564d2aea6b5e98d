package main

import (
	"fmt"
	"log/slog"

	"github.com/calumj/fardb/internal/far"
	"github.com/calumj/fardb/internal/utils"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <archive>...",
	Short: "List the manifest of one or more FAR archives",
	Long: `List prints every entry of the given archives in manifest order,
with each entry's offset and size.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			archive, err := far.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}

			entries := archive.Entries()
			slog.Debug("Archive opened", "path", path, "entries", len(entries))

			fmt.Printf("%s: %d entries, %s\n", path, len(entries), utils.Bytes(archive.Size()))
			fmt.Printf("  %-10s %-10s %s\n", "OFFSET", "SIZE", "NAME")
			for _, e := range entries {
				fmt.Printf("  %-10d %-10d %s\n", e.Offset, e.Length, e.Name)
			}

			if err := archive.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", path, err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
