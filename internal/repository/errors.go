// Package repository holds the SQL persistence of every table. Queries use
// `?` placeholders and portable SQL so the same code runs on MySQL and
// SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when the addressed row does not exist. Handlers
// translate it into a 404 (or a 401 on authentication paths).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned on a duplicate users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a write violates a uniqueness or reference
// constraint that is not covered by a more specific error.
var ErrConflict = errors.New("conflict")

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// isDuplicate matches MySQL error 1062 and SQLite unique violations.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1062") || strings.Contains(msg, "UNIQUE constraint failed")
}

// isForeignKey matches MySQL 1452 and SQLite foreign key violations.
func isForeignKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1452") || strings.Contains(msg, "FOREIGN KEY constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// mustAffect turns a zero-row update or delete into ErrNotFound.
func mustAffect(res sql.Result, err error) error {
	if err != nil {
		if isForeignKey(err) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// where accumulates AND-ed conditions.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
