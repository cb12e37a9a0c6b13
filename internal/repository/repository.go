// Package repository holds the SQL access for decisions and everything attached to them.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"
)

// Querier is satisfied by both *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrDuplicate is returned when an insert hits a unique constraint
var ErrDuplicate = errors.New("duplicate entry")

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}
