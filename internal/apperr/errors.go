// Package apperr defines the error kinds shared by the store, the record model and the edges.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Kind classifies a failure so callers can decide how to surface it.
type Kind string

const (
	KindStorageUnavailable Kind = "storage_unavailable"
	KindDeserialization    Kind = "deserialization"
	KindValidation         Kind = "validation"
	KindWriteFailure       Kind = "write_failure"
	KindNotFound           Kind = "not_found"
	KindDecode             Kind = "decode"
)

// Error is a classified error. Op names the failed operation (e.g. "notestore.load").
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) match not-found kinds.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// New returns an Error without a cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap returns an Error caused by err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Validation builds a KindValidation error for a single field.
func Validation(op, field, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: field + ": " + msg}
}
