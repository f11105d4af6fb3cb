// Package repository defines the error taxonomy shared by the data access
// layer and the ledgers built on top of it.  Handlers translate these
// values into HTTP responses, so every failure a caller can act on has a
// sentinel here.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrInvalidInput marks a malformed or out-of-range request field.  It is a
// caller error and not retryable as-is.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound is returned when a referenced venue, event or suggestion does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateVote is returned when the (event, voter) unique key rejects a
// second vote.  It is shown to users as "you already voted".
var ErrDuplicateVote = errors.New("duplicate vote")

// ErrInvalidTransition is returned when a suggestion is resolved while not
// pending.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrStorageUnavailable wraps transient infrastructure failures.  Reads
// retry once on it; writes surface it immediately.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ValidationError names the field that violated a constraint and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a *ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidInput wraps ErrInvalidInput with a message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// isUniqueViolation reports whether err is a unique/primary key violation
// from either MySQL (1062) or SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// isTransient reports whether err looks like a connection-level failure
// rather than a query or data problem.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED, sqlite3lib.SQLITE_IOERR:
			return true
		}
	}
	return false
}

// wrapErr classifies a driver error.  sql.ErrNoRows becomes ErrNotFound,
// connection failures become ErrStorageUnavailable, anything else is
// annotated with op and returned.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isTransient(err):
		return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WrapTxErr classifies a failure from BeginTx or Commit.
func WrapTxErr(op string, err error) error { return wrapErr(op, err) }
