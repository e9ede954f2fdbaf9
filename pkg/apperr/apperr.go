// Package apperr defines the error kinds returned by the text service and the
// table that maps them to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by who is responsible for it.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindValidation
	KindTooLarge
	KindNotFound
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:     "internal",
	KindInvalidInput: "invalid_input",
	KindValidation:   "validation",
	KindTooLarge:     "too_large",
	KindNotFound:     "not_found",
	KindUnavailable:  "unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var statusByKind = map[Kind]int{
	KindInternal:     http.StatusInternalServerError,
	KindInvalidInput: http.StatusBadRequest,
	KindValidation:   http.StatusUnprocessableEntity,
	KindTooLarge:     http.StatusRequestEntityTooLarge,
	KindNotFound:     http.StatusNotFound,
	KindUnavailable:  http.StatusServiceUnavailable,
}

// Error is an error with a kind and a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error of the given kind around err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode maps err to an HTTP status code. nil maps to 200.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if code, ok := statusByKind[KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}
