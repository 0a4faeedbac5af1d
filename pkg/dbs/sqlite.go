package dbs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// SQLiteOptions configures a SQLite wrapper. Path may be a file path or a `file:` URI.
type SQLiteOptions struct {
	Path string `mapstructure:"path" validate:"required"`
}

// NewSQLite opens a SQLite wrapper, creating the parent directory of a file path if needed.
func NewSQLite(name string, opts SQLiteOptions, log Logger) (*SQLDB, error) {
	if !strings.HasPrefix(opts.Path, "file:") && opts.Path != ":memory:" {
		if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
	}
	db, err := OpenSQL(name, "sqlite", opts.Path, log)
	if err != nil {
		return nil, err
	}
	if opts.Path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.Handle().SetMaxOpenConns(1)
	}
	return db, nil
}

