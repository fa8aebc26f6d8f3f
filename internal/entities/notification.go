package entities

// BookingConfirmationEmail is the payload accepted by the notification
// service for a confirmed booking.
type BookingConfirmationEmail struct {
	Email           string   `json:"email"`
	PassengerName   string   `json:"passengerName"`
	BookingID       int64    `json:"bookingId"`
	SourceCity      string   `json:"sourceCity"`
	DestinationCity string   `json:"destinationCity"`
	TravelDate      string   `json:"travelDate"`
	DepartureTime   string   `json:"departureTime"`
	SeatNumbers     []string `json:"seatNumbers"`
	TotalAmount     float64  `json:"totalAmount"`
	Currency        string   `json:"currency"`
}
