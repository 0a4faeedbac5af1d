package dbs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/samvad-hq/lnk/pkg/logging"
)

// ErrRowsAffectedUnavailable is returned by Execute when the statement ran but the
// driver could not report how many rows it changed.
var ErrRowsAffectedUnavailable = errors.New("rows affected unavailable")

// SQLDB wraps a database/sql handle behind Select/Execute.
type SQLDB struct {
	name   string
	driver string
	db     *sql.DB
	log    Logger
}

// OpenSQL opens (without dialing) a database/sql handle for driver and dsn.
func OpenSQL(name, driver, dsn string, log Logger) (*SQLDB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database %q: %w", driver, name, err)
	}
	return NewSQLDB(name, driver, db, log), nil
}

// NewSQLDB wraps an existing handle.
func NewSQLDB(name, driver string, db *sql.DB, log Logger) *SQLDB {
	return &SQLDB{name: name, driver: driver, db: db, log: logging.Ensure(log)}
}

// Name returns the logical name the wrapper was configured under.
func (s *SQLDB) Name() string { return s.name }

// Driver returns the database/sql driver name.
func (s *SQLDB) Driver() string { return s.driver }

// Handle exposes the underlying *sql.DB for callers needing transactions.
func (s *SQLDB) Handle() *sql.DB { return s.db }

// Select runs query and materializes every row.
func (s *SQLDB) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s select: %w", s.name, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s select: %w", s.name, err)
	}
	s.log.DebugObj("sql select completed", "sql_select", map[string]any{
		"db":   s.name,
		"rows": len(out),
	})
	return out, nil
}

// Execute runs a statement and returns the number of affected rows.
// When the driver cannot count them the statement has still run; Execute then
// returns -1 and an error wrapping ErrRowsAffectedUnavailable.
func (s *SQLDB) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s execute: %w", s.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.log.WarnObj("sql rows affected unavailable", "sql_execute", map[string]any{
			"db":    s.name,
			"error": err.Error(),
		})
		return -1, fmt.Errorf("%s execute: %w: %v", s.name, ErrRowsAffectedUnavailable, err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *SQLDB) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping: %w", s.name, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLDB) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
