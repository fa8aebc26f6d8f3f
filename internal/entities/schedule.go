package entities

// Bus is the vehicle operating a schedule.
type Bus struct {
	ID           int64  `json:"id"`
	BusNumber    string `json:"busNumber"`
	Type         string `json:"type"`
	TotalSeats   int    `json:"totalSeats"`
	OperatorName string `json:"operatorName"`
	Status       string `json:"status"`
}

type Route struct {
	ID              int64   `json:"id"`
	SourceCity      string  `json:"sourceCity"`
	DestinationCity string  `json:"destinationCity"`
	DistanceKm      float64 `json:"distanceKm"`
	Duration        string  `json:"duration"`
	Status          string  `json:"status"`
}

// Schedule is one bookable trip: a bus on a route at a given time and fare.
type Schedule struct {
	ID            int64   `json:"id"`
	Bus           Bus     `json:"bus"`
	Route         Route   `json:"route"`
	DepartureTime string  `json:"departureTime"`
	ArrivalTime   string  `json:"arrivalTime"`
	Fare          float64 `json:"fare"`
	Status        string  `json:"status"`
}

// ScheduleQuery is what the search form collects. TravelDate is a civil
// date in YYYY-MM-DD form.
type ScheduleQuery struct {
	SourceCity      string `json:"sourceCity"`
	DestinationCity string `json:"destinationCity"`
	TravelDate      string `json:"travelDate"`
}
