package api

import (
	"nextstop/internal/entities"
	"nextstop/internal/session"
)

// Session. Any user object sent alongside the token is ignored.
type SessionRequest struct {
	Token string `json:"token"`
}
type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *session.User `json:"user,omitempty"`
}

// Booking steps
type SearchRequest = entities.ScheduleQuery

type SelectScheduleRequest struct {
	ScheduleID int64 `json:"scheduleId"`
}
type ReserveRequest struct {
	SeatNumbers []string           `json:"seatNumbers"`
	Passenger   entities.Passenger `json:"passenger"`
}
type PayRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

// Admin
type AddUserRequest = entities.NewUser

type HealthResponse struct {
	Status string `json:"status"`
}
