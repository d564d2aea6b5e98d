// Package catalog persists archive manifests into a SQLite database so
// entries can be searched across many archives with plain SQL.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog represents a connection to the fardb SQLite catalog.
type Catalog struct {
	db   *sql.DB
	path string
}

// Options configures catalog creation and connection behavior.
type Options struct {
	// Path to the SQLite database file
	Path string

	// WALMode enables Write-Ahead Logging mode for better concurrency
	WALMode bool

	// ForeignKeys enables foreign key constraint checking
	ForeignKeys bool

	// BusyTimeout sets the timeout for locked database operations
	BusyTimeout time.Duration
}

// DefaultOptions returns sensible default options for catalog connections.
func DefaultOptions(path string) *Options {
	return &Options{
		Path:        path,
		WALMode:     true,
		ForeignKeys: true,
		BusyTimeout: 30 * time.Second,
	}
}

// Open opens (creating if needed) the catalog database at the
// configured path and applies the schema.
func Open(options *Options) (*Catalog, error) {
	if options == nil {
		return nil, fmt.Errorf("catalog options cannot be nil")
	}

	if options.Path == "" {
		return nil, fmt.Errorf("catalog path cannot be empty")
	}

	if err := ensureDirectory(options.Path); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", buildConnectionString(options))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", options.Path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing catalog connection: %w", err)
	}

	c := &Catalog{
		db:   db,
		path: options.Path,
	}

	if err := c.createSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return c, nil
}

// Close closes the catalog connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}

	err := c.db.Close()
	c.db = nil

	if err != nil {
		return fmt.Errorf("closing catalog connection: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction with the given options.
func (c *Catalog) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if c.db == nil {
		return nil, fmt.Errorf("catalog connection is closed")
	}

	tx, err := c.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}

	return tx, nil
}

// Exec executes a SQL statement that doesn't return rows.
func (c *Catalog) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if c.db == nil {
		return nil, fmt.Errorf("catalog connection is closed")
	}

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}

	return result, nil
}

// Query executes a SQL query that returns rows.
func (c *Catalog) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if c.db == nil {
		return nil, fmt.Errorf("catalog connection is closed")
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}

	return rows, nil
}

// QueryRow executes a SQL query that is expected to return at most one row.
func (c *Catalog) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// buildConnectionString constructs the SQLite connection string with pragmas.
func buildConnectionString(options *Options) string {
	var pragmas []string

	if options.WALMode {
		pragmas = append(pragmas, "_journal_mode=WAL")
	}

	if options.ForeignKeys {
		pragmas = append(pragmas, "_foreign_keys=on")
	}

	if options.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_busy_timeout=%d", int(options.BusyTimeout.Milliseconds())))
	}

	pragmas = append(pragmas, "_synchronous=NORMAL")

	connStr := options.Path
	if len(pragmas) > 0 {
		connStr += "?" + strings.Join(pragmas, "&")
	}

	return connStr
}

// ensureDirectory creates the directory for the catalog file if it doesn't exist.
func ensureDirectory(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}

	return os.MkdirAll(dir, 0755)
}
