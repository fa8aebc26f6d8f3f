package entities

import "time"

// Receipt is the locally kept record of a confirmed booking.
type Receipt struct {
	BookingID       int64     `json:"bookingId"`
	UserID          int64     `json:"userId"`
	ScheduleID      int64     `json:"scheduleId"`
	TravelDate      string    `json:"travelDate"`
	SeatNumbers     []string  `json:"seatNumbers"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	PaymentIntentID string    `json:"paymentIntentId"`
	PaymentStatus   string    `json:"paymentStatus"`
	EmailSent       bool      `json:"emailSent"`
	SMSSent         bool      `json:"smsSent"`
	CreatedAt       time.Time `json:"createdAt"`
}
