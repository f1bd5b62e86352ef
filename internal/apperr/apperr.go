// Package apperr defines the error kinds that cross the service/handler
// boundary and how each kind is reported to clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for status mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindLookupFailed
	KindUpstreamFailed
	KindPersistenceFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindLookupFailed:
		return "lookup_failed"
	case KindUpstreamFailed:
		return "upstream_failed"
	case KindPersistenceFailed:
		return "persistence_failed"
	default:
		return "unknown"
	}
}

// Code is the stable error code written in the response envelope.
func (k Kind) Code() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_QUERY"
	case KindLookupFailed:
		return "LOOKUP_FAILED"
	case KindUpstreamFailed:
		return "UPSTREAM_FAILED"
	case KindPersistenceFailed:
		return "PERSISTENCE_FAILED"
	default:
		return "INTERNAL"
	}
}

// Status maps the kind to an HTTP status code.
func (k Kind) Status() int {
	if k == KindInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Message is the client-facing description. Causes are never included.
func (k Kind) Message() string {
	switch k {
	case KindInvalidInput:
		return "missing or invalid query parameter"
	case KindLookupFailed:
		return "Unable to resolve location"
	case KindUpstreamFailed:
		return "So sorry, something went wrong."
	case KindPersistenceFailed:
		return "Location storage unavailable"
	default:
		return "Internal error"
	}
}

// Error carries a Kind, the failing operation and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind and op.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func LookupFailed(op string, err error) *Error {
	return New(KindLookupFailed, op, err)
}

func UpstreamFailed(op string, err error) *Error {
	return New(KindUpstreamFailed, op, err)
}

func PersistenceFailed(op string, err error) *Error {
	return New(KindPersistenceFailed, op, err)
}

func InvalidInput(op string, err error) *Error {
	return New(KindInvalidInput, op, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
