package entities

type SeatAvailability struct {
	SeatID     int64  `json:"seatId"`
	SeatNumber string `json:"seatNumber"`
	Available  bool   `json:"available"`
}

// SeatMappingRequest asks the booking service to translate seat labels into
// seat ids for one schedule.
type SeatMappingRequest struct {
	ScheduleID  int64    `json:"scheduleId"`
	SeatNumbers []string `json:"seatNumbers"`
}
