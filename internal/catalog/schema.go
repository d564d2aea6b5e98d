package catalog

import (
	"context"
	"fmt"
)

// The catalog holds one row per scanned archive and one row per
// manifest entry. Entry order within an archive is preserved via
// entry_index so the on-disk manifest order can be reconstructed.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS archives (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    version INTEGER NOT NULL,
    size_bytes INTEGER NOT NULL,
    entry_count INTEGER NOT NULL,
    scanned_at TEXT NOT NULL DEFAULT (datetime('now'))
)`,
	`CREATE TABLE IF NOT EXISTS entries (
    archive_id INTEGER NOT NULL,
    entry_index INTEGER NOT NULL,
    name TEXT NOT NULL,
    offset INTEGER NOT NULL,
    length INTEGER NOT NULL,
    PRIMARY KEY (archive_id, entry_index),
    FOREIGN KEY (archive_id) REFERENCES archives(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_name ON entries(name)`,
}

// createSchema applies the catalog DDL. All statements are idempotent.
func (c *Catalog) createSchema(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := c.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("applying schema statement: %w", err)
		}
	}
	return nil
}

// ListTables returns the user-visible tables of the catalog.
func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.Query(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table names: %w", err)
	}

	return tables, nil
}
