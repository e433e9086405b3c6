package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Sentinel errors returned by Home and Conn.
var (
	// ErrNotFound indicates Connect was called for an instance that does not exist.
	ErrNotFound = errors.New("database instance not found")

	// ErrExists indicates Create was called for an instance that already exists.
	ErrExists = errors.New("database instance already exists")

	// ErrInvalidName indicates an instance name that cannot map to a file.
	ErrInvalidName = errors.New("invalid database instance name")

	// ErrClosed indicates a statement was issued on a closed handle.
	ErrClosed = errors.New("database handle is closed")

	// ErrColumnType indicates typed column access to a value of another type.
	ErrColumnType = errors.New("column type mismatch")

	// ErrColumnRange indicates column access outside the row.
	ErrColumnRange = errors.New("column index out of range")
)

// ErrorCode categorizes statement execution failures.
type ErrorCode string

const (
	// CodeSyntax indicates malformed SQL or a reference to an unknown table/column.
	CodeSyntax ErrorCode = "SYNTAX"

	// CodeConstraint indicates a constraint violation.
	CodeConstraint ErrorCode = "CONSTRAINT"

	// CodeTypeMismatch indicates a parameter or value of an unsupported type.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// CodeBind indicates parameters that do not match the statement placeholders.
	CodeBind ErrorCode = "BIND"

	// CodeBusy indicates the database stayed locked past the busy timeout.
	CodeBusy ErrorCode = "BUSY"

	// CodeClosed indicates the handle was closed.
	CodeClosed ErrorCode = "CLOSED"

	// CodeIO indicates a storage-level failure (disk, permissions, read-only).
	CodeIO ErrorCode = "IO"

	// CodeCanceled indicates the statement's context ended first.
	CodeCanceled ErrorCode = "CANCELED"

	// CodeUnknown covers everything else.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// ExecutionError is returned for every failed statement.
type ExecutionError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// SQL is the statement text that failed.
	SQL string

	// Message is the diagnostic message (from SQLite when available).
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.SQL != "" {
		return fmt.Sprintf("%s: %s (sql=%q)", e.Code, e.Message, e.SQL)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsExecutionError returns true if err is or wraps an *ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// CodeOf returns the ErrorCode of a wrapped *ExecutionError, or "" when err
// is not one.
func CodeOf(err error) ErrorCode {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// newExecutionError classifies a driver error for the given statement.
// Already classified errors pass through unchanged.
func newExecutionError(query string, err error) error {
	if err == nil {
		return nil
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return err
	}
	return &ExecutionError{
		Code:    classify(err),
		SQL:     query,
		Message: err.Error(),
		Err:     err,
	}
}

// classify maps a database/sql or SQLite error onto an ErrorCode.
func classify(err error) ErrorCode {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCanceled
	}
	if errors.Is(err, ErrClosed) {
		return CodeClosed
	}
	// Argument count mismatches are reported as plain errors by database/sql
	// and by the driver.
	if msg := err.Error(); strings.HasPrefix(msg, "sql: expected") || strings.HasPrefix(msg, "not enough args") {
		return CodeBind
	}

	var se sqlite3.Error
	if !errors.As(err, &se) {
		return CodeUnknown
	}

	switch se.Code {
	case sqlite3.ErrError:
		return CodeSyntax
	case sqlite3.ErrConstraint:
		return CodeConstraint
	case sqlite3.ErrMismatch:
		return CodeTypeMismatch
	case sqlite3.ErrRange:
		return CodeBind
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return CodeBusy
	case sqlite3.ErrIoErr, sqlite3.ErrFull, sqlite3.ErrCantOpen, sqlite3.ErrReadonly, sqlite3.ErrCorrupt:
		return CodeIO
	default:
		return CodeUnknown
	}
}
