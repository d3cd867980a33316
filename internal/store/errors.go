package store

import (
	"errors"
	"fmt"
)

// Kind categorizes store failures.
type Kind string

const (
	// KindIoFailure means the medium could not be read or written.
	KindIoFailure Kind = "IO_FAILURE"

	// KindCorruptLog means stored content does not decode as a log.
	KindCorruptLog Kind = "CORRUPT_LOG"

	// KindValidation means the caller's input was rejected before any I/O.
	KindValidation Kind = "VALIDATION"
)

// Op names the store operation that failed.
type Op string

const (
	OpAppend Op = "append"
	OpList   Op = "list"
	OpExists Op = "exists"
	OpFind   Op = "find"
)

// Error is returned by every store operation that fails.
type Error struct {
	Kind       Kind
	Op         Op
	RecordType RecordType
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.RecordType != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.RecordType, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a store error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// IsIoFailure reports whether err is a store I/O failure.
func IsIoFailure(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindIoFailure
}

// IsCorruptLog reports whether err is a corrupt-log failure.
func IsCorruptLog(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindCorruptLog
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindValidation
}

func newError(kind Kind, op Op, t RecordType, err error) *Error {
	return &Error{Kind: kind, Op: op, RecordType: t, Err: err}
}
