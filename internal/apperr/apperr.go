// Package apperr classifies service failures so the HTTP layer can pick a
// status code without knowing which store or adapter failed.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindInternal covers store and queue operations that did not return the expected result.
	KindInternal Kind = iota
	// KindNotFound means no row matched the id and the ownership scope.
	KindNotFound
	// KindValidation means a required input field was missing or malformed.
	KindValidation
	// KindUpstream means the completion service, blob store or queue call itself failed.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func NotFound(op, format string, args ...interface{}) error {
	return newf(KindNotFound, op, format, args...)
}

func Validation(op, format string, args ...interface{}) error {
	return newf(KindValidation, op, format, args...)
}

func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}
