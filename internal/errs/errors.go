// Package errs provides the unified error type used across all of dbverify.
//
// Every subsystem (database drivers, filestore, verifier) wraps its native
// errors into *errs.Error before returning them to callers. Callers use the Is*
// predicates to handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "query failed", pgErr)
//
//	// In a caller, check the error kind:
//	if errs.IsConnectionFailed(err) {
//	    // database is unreachable or rejected the credentials
//	}
package errs

import (
	"context"
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing backend-specific codes.
// A verification run only ever fails with one of ErrKindConnectionFailed,
// ErrKindQueryFailed or ErrKindUnexpected; ErrKindInvalidInput is reserved for
// configuration problems detected before a run starts.
type ErrKind int

const (
	ErrKindUnexpected       ErrKind = iota
	ErrKindConnectionFailed         // cannot reach, authenticate to, or select the database
	ErrKindQueryFailed              // statement rejected or failed while reading rows
	ErrKindInvalidInput             // bad configuration from the caller
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	default:
		return "unexpected"
	}
}

// Error is the single error type returned by all dbverify subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Classify returns err unchanged when it already carries an *Error somewhere in
// its chain, and wraps it with kind and msg otherwise. It returns nil for nil.
func Classify(kind ErrKind, msg string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(kind, msg, err)
}

// --- Predicates ---

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a statement execution or row read failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return err != nil && KindOf(err) == ErrKindInvalidInput
}

// IsUnexpected reports whether err is non-nil and carries no more specific kind.
func IsUnexpected(err error) bool {
	return err != nil && KindOf(err) == ErrKindUnexpected
}

// IsTimeout reports whether a deadline or cancellation appears anywhere in the
// cause chain, regardless of the error's kind.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// KindOf extracts the ErrKind from any error in the chain.
// Errors that are not *Error report ErrKindUnexpected.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnexpected
}
