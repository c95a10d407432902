package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	// KindTransport means the request never produced a response
	// (DNS, connection refused, cancelled).
	KindTransport ErrorKind = "transport"

	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP ErrorKind = "http"

	// KindValidation means the input was rejected before any request.
	KindValidation ErrorKind = "validation"

	// KindDecode means a 2xx response body could not be decoded.
	KindDecode ErrorKind = "decode"
)

// ErrNotLoggedIn is returned by calls that need a session user. It is a
// validation error raised before any request; match it with errors.Is.
var ErrNotLoggedIn = &Error{Kind: KindValidation, Message: "not logged in"}

// Error is the uniform failure shape of every Service call.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status, 0 unless Kind is KindHTTP
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Kind == kind
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Status
	}
	return 0
}

// IsUnauthorized reports a 401 or 403 answer, typically a stale session.
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == 401 || s == 403
}
