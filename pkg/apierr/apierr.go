// Package apierr carries the error taxonomy shared by the web gateway
// and the service layer. Handlers convert any error into the uniform
// {error} envelope; unknown kinds default to internal.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindNotFound
	KindUpstream
	KindStorage
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Kind() Kind {
	return e.kind
}

// Message is what gets surfaced to the caller. Upstream and storage
// failures keep vendor detail out of the response body.
func (e *Error) Message() string {
	switch e.kind {
	case KindUpstream:
		return "upstream service failed"
	case KindStorage, KindInternal:
		if e.msg != "" {
			return e.msg
		}
		return "internal error"
	default:
		return e.msg
	}
}

func Validation(msg string) *Error {
	return &Error{kind: KindValidation, msg: msg}
}

func Authentication(msg string) *Error {
	return &Error{kind: KindAuthentication, msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{kind: KindNotFound, msg: msg}
}

func Upstream(msg string, err error) *Error {
	return &Error{kind: KindUpstream, msg: msg, err: err}
}

func Storage(msg string, err error) *Error {
	return &Error{kind: KindStorage, msg: msg, err: err}
}

func Internal(err error) *Error {
	return &Error{kind: KindInternal, msg: "internal error", err: err}
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}

func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// From normalizes an arbitrary error into an *Error, wrapping unknown
// kinds as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
