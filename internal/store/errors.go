package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/gudang/internal/apperr"
)

// classify maps a driver error to its apperr class. It returns nil for
// context cancellation, which callers pass through unchanged.
func classify(err error) *apperr.Error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return apperr.ErrNetworkUnavailable
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		return classifySQLite(se)
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return classifyPostgres(pe)
	}

	var ce *pgconn.ConnectError
	if errors.As(err, &ce) {
		if strings.Contains(ce.Error(), "password authentication failed") {
			return apperr.ErrAuthRejected
		}
		return apperr.ErrNetworkUnavailable
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return apperr.ErrNetworkUnavailable
	}

	return apperr.ErrBackendWrite
}

func classifySQLite(se *sqlite.Error) *apperr.Error {
	msg := se.Error()
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return apperr.ErrSchemaMismatch
	}

	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return apperr.ErrWriteConflict
	case sqlite3.SQLITE_AUTH, sqlite3.SQLITE_PERM:
		return apperr.ErrAuthRejected
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
		return apperr.ErrNetworkUnavailable
	}
	return apperr.ErrBackendWrite
}

func classifyPostgres(pe *pgconn.PgError) *apperr.Error {
	switch pe.Code {
	case "42P01", "42703", "3F000":
		return apperr.ErrSchemaMismatch
	case "23505", "40001", "40P01":
		return apperr.ErrWriteConflict
	case "28000", "28P01", "42501":
		return apperr.ErrAuthRejected
	}
	if strings.HasPrefix(pe.Code, "08") || strings.HasPrefix(pe.Code, "57P") {
		return apperr.ErrNetworkUnavailable
	}
	return apperr.ErrBackendWrite
}
