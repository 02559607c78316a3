// Package store implements the record repository on a SQL database. The same
// queries serve the embedded SQLite backend and the hosted Postgres backend;
// placeholders are rebound per driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/repo"
)

var _ repo.Repository = (*Store)(nil)
var _ repo.SecretStore = (*Store)(nil)

// Store is a SQL-backed repository.
type Store struct {
	db *sqlx.DB
}

// New returns a Store over db. The schema must already exist.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Driver returns the database driver name.
func (s *Store) Driver() string {
	return s.db.DriverName()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying database for tests and maintenance tasks.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// setList accumulates the assignments of a partial UPDATE.
type setList struct {
	cols []string
	args []any
}

func (l *setList) add(col string, v any) {
	l.cols = append(l.cols, col+" = ?")
	l.args = append(l.args, v)
}

func (l *setList) empty() bool {
	return len(l.cols) == 0
}

// updateByID applies the assignments to the row with the given id.
func (s *Store) updateByID(ctx context.Context, q sqlx.ExtContext, table, id string, l setList) error {
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, table, strings.Join(l.cols, ", "))
	res, err := q.ExecContext(ctx, s.db.Rebind(query), append(l.args, id)...)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// deleteByID deletes the row with the given id.
func (s *Store) deleteByID(ctx context.Context, q sqlx.ExtContext, table, id string) error {
	res, err := q.ExecContext(ctx, s.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table)), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// expectRow returns sql.ErrNoRows when res touched no rows.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// fail wraps err with the operation and its classified kind.
func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	base := classify(err)
	if base == nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return apperr.Backend(base, op+": "+base.Message, err)
}
