package entities

type PaymentRequest struct {
	UserID          int64   `json:"userId"`
	ScheduleID      int64   `json:"scheduleId"`
	TravelDate      string  `json:"travelDate"`
	Amount          float64 `json:"amount"`
	PaymentMethodID string  `json:"paymentMethodId"`
	Currency        string  `json:"currency"`
}

type PaymentResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
}
