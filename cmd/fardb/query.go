package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/calumj/fardb/internal/catalog"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the SQLite catalog directly from the command line",
	Long: `Query executes SQL against the catalog database, or lists the
catalog's tables with --tables.

Examples:
  fardb query --tables
  fardb query "SELECT a.path, e.name FROM entries e JOIN archives a ON a.id = e.archive_id WHERE e.name LIKE '%.bmp'"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}

		slog.Debug("Query parameters", "database", cfg.Database, "list-tables", listTables)

		db, err := catalog.Open(catalog.DefaultOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer db.Close()

		if listTables {
			tables, err := db.ListTables(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Available tables:")
			for _, table := range tables {
				fmt.Printf("  %s\n", table)
			}

			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("provide a SQL statement or --tables")
		}

		query := strings.Join(args, " ")
		rows, err := db.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("executing query: %w", err)
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("reading result columns: %w", err)
		}

		fmt.Println(strings.Join(columns, "\t"))

		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}

		count := 0
		for rows.Next() {
			if err := rows.Scan(scan...); err != nil {
				return fmt.Errorf("scanning row: %w", err)
			}

			fields := make([]string, len(values))
			for i, v := range values {
				switch v := v.(type) {
				case nil:
					fields[i] = "NULL"
				case []byte:
					fields[i] = string(v)
				default:
					fields[i] = fmt.Sprintf("%v", v)
				}
			}
			fmt.Println(strings.Join(fields, "\t"))
			count++
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating rows: %w", err)
		}

		slog.Debug("Query complete", "rows", count)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "list catalog tables")
}
