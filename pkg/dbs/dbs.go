// Package dbs holds the database wrappers resolved from the `dbs` section of a connectors file.
package dbs

import (
	"context"

	"github.com/samvad-hq/lnk/pkg/logging"
)

// DB is the surface every database wrapper offers.
type DB interface {
	Ping(ctx context.Context) error
	Close() error
}

// Querier is implemented by wrappers that accept SQL text.
type Querier interface {
	DB
	Select(ctx context.Context, query string, args ...any) ([]Row, error)
	Execute(ctx context.Context, query string, args ...any) (int64, error)
}

// Row is one result record keyed by column (or field) name.
type Row map[string]any

// Logger is the shared structured logging surface.
type Logger = logging.Logger
