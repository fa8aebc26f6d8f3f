package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies how a backend call failed.
type Kind string

const (
	KindEncode    Kind = "encode"
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindDecode    Kind = "decode"
)

// Error is returned by every client method. Op names the wrapper, e.g.
// "CreateBooking".
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	// Message is the backend's own message when the error body carried one.
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStatus && e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsStatus reports whether err is a non-2xx response with the given code.
func IsStatus(err error, code int) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindStatus && ce.StatusCode == code
}

func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}

func IsTransport(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindTransport
}
