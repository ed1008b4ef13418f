package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Error kinds. Every error returned by this package matches exactly one of
// these through errors.Is.
var (
	ErrDirectoryCreateFailed = errors.New("database directory could not be created")
	ErrOpenFailed            = errors.New("database could not be opened")
	ErrSchema                = errors.New("schema initialization failed")
	ErrQueryPrepare          = errors.New("query preparation failed")
	ErrQueryExec             = errors.New("query execution failed")
	ErrRowMapping            = errors.New("row mapping failed")
	ErrConstraintViolation   = errors.New("constraint violation")
	ErrSessionNotFound       = errors.New("session not found")
)

// Error annotates an underlying storage failure with its kind and a
// human-readable context such as "Failed to save QC record".
type Error struct {
	Kind    error
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Context
	}
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Err: err}
}

// execError classifies a failed statement. SQLite constraint failures
// (UNIQUE, NOT NULL, FOREIGN KEY) become ErrConstraintViolation, everything
// else ErrQueryExec.
func execError(context string, err error) *Error {
	if isConstraintError(err) {
		return newError(ErrConstraintViolation, context, err)
	}
	return newError(ErrQueryExec, context, err)
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// Kind returns the error kind of err, or nil when err did not originate
// from this package.
func Kind(err error) error {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Kind
	}
	return nil
}
