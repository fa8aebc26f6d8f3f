package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("sign in to continue")
	ErrForbidden       = errors.New("not allowed")
	ErrTokenRejected   = errors.New("sign-in token was not accepted")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// SeatsUnavailableError lists chosen seats that are no longer free.
type SeatsUnavailableError struct {
	Seats []string
}

func (e SeatsUnavailableError) Error() string {
	return "seats no longer available: " + strings.Join(e.Seats, ", ")
}

// BookingFailedError means the booking service declined or could not be
// reached. Message is safe to show to the user.
type BookingFailedError struct {
	Message string
	Err     error
}

func (e BookingFailedError) Error() string { return e.Message }
func (e BookingFailedError) Unwrap() error { return e.Err }

type PaymentFailedError struct {
	Message string
	Err     error
}

func (e PaymentFailedError) Error() string { return e.Message }
func (e PaymentFailedError) Unwrap() error { return e.Err }
