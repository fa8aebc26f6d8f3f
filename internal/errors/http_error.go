package errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"nextstop/internal/client"
	"nextstop/internal/logging"
	"nextstop/internal/repository"
	"nextstop/internal/service"
	"nextstop/internal/workflow"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Kind    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

// Helpers for common errors
var (
	ErrBadRequest   = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
	ErrForbidden    = func(msg string) *HTTPError { return NewHTTPError(http.StatusForbidden, msg) }
	ErrNotFound     = func(msg string) *HTTPError { return NewHTTPError(http.StatusNotFound, msg) }
)

func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "upstream"
	case http.StatusGatewayTimeout:
		return "upstream_timeout"
	default:
		return "internal"
	}
}

// FromError maps an error from the service layer to the response the
// browser should see.
func FromError(err error) *HTTPError {
	var (
		httpErr     *HTTPError
		validation  service.ValidationError
		unavailable service.SeatsUnavailableError
		booking     service.BookingFailedError
		payment     service.PaymentFailedError
		transition  *workflow.TransitionError
		upstream    *client.Error
	)
	wrap := func(code int, kind, msg string) *HTTPError {
		return &HTTPError{Code: code, Kind: kind, Message: msg, Err: err}
	}

	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &validation):
		return wrap(http.StatusBadRequest, "validation", validation.Error())
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrTokenRejected):
		return wrap(http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, service.ErrForbidden):
		return wrap(http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, repository.ErrReceiptNotFound), errors.Is(err, workflow.ErrNotFound):
		return wrap(http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, workflow.ErrUnknownSchedule):
		return wrap(http.StatusNotFound, "not_found", "schedule is not in the current results")
	case errors.As(err, &transition):
		return wrap(http.StatusConflict, "invalid_transition", transition.Error())
	case errors.As(err, &unavailable):
		return wrap(http.StatusConflict, "seats_unavailable", unavailable.Error())
	case errors.As(err, &booking):
		return wrap(http.StatusBadGateway, "booking_failed", booking.Message)
	case errors.As(err, &payment):
		return wrap(http.StatusBadGateway, "payment_failed", payment.Message)
	case errors.As(err, &upstream):
		return fromClientError(err, upstream)
	default:
		return wrap(http.StatusInternalServerError, "internal", "internal server error")
	}
}

func fromClientError(err error, ce *client.Error) *HTTPError {
	e := &HTTPError{Code: http.StatusBadGateway, Kind: "upstream", Message: ce.Op + " failed", Err: err}
	switch {
	case ce.Kind == client.KindTransport && errors.Is(ce.Err, context.DeadlineExceeded):
		e.Code, e.Kind = http.StatusGatewayTimeout, "upstream_timeout"
	case client.IsUnauthorized(ce):
		// The backend rejected the session token; the user must sign in again.
		e.Code, e.Kind = http.StatusUnauthorized, "unauthenticated"
	case client.IsNotFound(ce):
		e.Code, e.Kind = http.StatusNotFound, "not_found"
	}
	if ce.Message != "" {
		e.Message = ce.Message
	}
	return e
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// Write sends err as a JSON error body. Server-side failures are logged.
func Write(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	httpErr := FromError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "status", httpErr.Code, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Code)
	json.NewEncoder(w).Encode(errorBody{
		Error:     httpErr.Message,
		Code:      httpErr.Kind,
		RequestID: logging.RequestID(r.Context()),
	})
}
