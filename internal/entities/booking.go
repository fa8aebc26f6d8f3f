package entities

type BookingRequest struct {
	UserID     int64   `json:"userId"`
	ScheduleID int64   `json:"scheduleId"`
	SeatIDs    []int64 `json:"seatIds"`
	TravelDate string  `json:"travelDate"`
}

type BookingResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	BookingID *int64 `json:"bookingId,omitempty"`
}

// Passenger holds the contact details entered before payment.
type Passenger struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
