// Package apperr defines the structured error value shared by the booking
// flow: a kind, a human message and, for remote failures, the HTTP status and
// raw response body returned by CashBarber.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindConfig   Kind = "config"
	KindAuth     Kind = "auth"
	KindRemote   Kind = "remote"
	KindBooking  Kind = "booking"
	KindConflict Kind = "conflict"
	KindInternal Kind = "internal"
)

// Error is a classified failure. RawBody holds the remote response verbatim
// when one was received.
type Error struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	RawBody    json.RawMessage
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, msg, e.HTTPStatus)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error of the given kind wrapping err.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Remote returns an Error carrying an HTTP status and the raw body.
func Remote(kind Kind, status int, message string, body []byte) *Error {
	return &Error{Kind: kind, Message: message, HTTPStatus: status, RawBody: rawJSON(body)}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// rawJSON keeps valid JSON bodies as-is and quotes anything else so the
// value always marshals.
func rawJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}
