package api

import (
	"nextstop/internal/entities"
	"nextstop/internal/workflow"
)

// NoResultsMessage is shown when a search finds nothing.
const NoResultsMessage = "No buses found for this route and date."

// Action is something the page may offer the visitor. Views only describe
// actions; taking one is a separate request.
type Action struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Href   string `json:"href"`
}

var (
	searchAgain = Action{Label: "Search Again", Method: "POST", Href: "/api/booking/reset"}
	goBack      = Action{Label: "Back", Method: "POST", Href: "/api/booking/back"}
	newBooking  = Action{Label: "Book Another Trip", Method: "POST", Href: "/api/booking/reset"}
	finishPay   = Action{Label: "Complete Payment", Method: "POST", Href: "/api/booking/pay/confirm"}
)

// StepView is the JSON body for the current step. Exactly one of the step
// sections is set.
type StepView struct {
	FlowID        string             `json:"flowId"`
	Step          workflow.Step      `json:"step"`
	Error         string             `json:"error,omitempty"`
	Search        *SearchView        `json:"search,omitempty"`
	Results       *ResultsView       `json:"results,omitempty"`
	SeatSelection *SeatSelectionView `json:"seatSelection,omitempty"`
	Payment       *PaymentView       `json:"payment,omitempty"`
	Confirmation  *ConfirmationView  `json:"confirmation,omitempty"`
}

type SearchView struct {
	Query entities.ScheduleQuery `json:"query"`
}

type ResultsView struct {
	Query     entities.ScheduleQuery `json:"query"`
	Schedules []entities.Schedule    `json:"schedules"`
	// Message is set only when Schedules is empty.
	Message string   `json:"message,omitempty"`
	Actions []Action `json:"actions"`
}

type SeatView struct {
	SeatNumber string `json:"seatNumber"`
	Available  bool   `json:"available"`
}

type SeatSelectionView struct {
	Schedule  entities.Schedule `json:"schedule"`
	Seats     []SeatView        `json:"seats"`
	Available int               `json:"available"`
	Fare      float64           `json:"fare"`
	Actions   []Action          `json:"actions"`
}

type PaymentView struct {
	BookingID   int64              `json:"bookingId"`
	Schedule    entities.Schedule  `json:"schedule"`
	SeatNumbers []string           `json:"seatNumbers"`
	Passenger   entities.Passenger `json:"passenger"`
	Amount      float64            `json:"amount"`
	Currency    string             `json:"currency"`
}

type ConfirmationView struct {
	BookingID       int64    `json:"bookingId"`
	SeatNumbers     []string `json:"seatNumbers"`
	Amount          float64  `json:"amount"`
	Currency        string   `json:"currency"`
	PaymentIntentID string   `json:"paymentIntentId"`
	PaymentStatus   string   `json:"paymentStatus"`
	RequiresAction  bool     `json:"requiresAction"`
	ClientSecret    string   `json:"clientSecret,omitempty"`
	EmailSent       bool     `json:"emailSent"`
	SMSSent         bool     `json:"smsSent"`
	Actions         []Action `json:"actions"`
}

// Render builds the view for the flow's current step.
func Render(f *workflow.Flow) StepView {
	v := StepView{FlowID: f.ID, Step: f.Step, Error: f.LastError}
	switch f.Step {
	case workflow.StepResults:
		r := ResultsStep(f)
		v.Results = &r
	case workflow.StepSeatSelection:
		s := SeatSelectionStep(f)
		v.SeatSelection = &s
	case workflow.StepPayment:
		p := PaymentStep(f)
		v.Payment = &p
	case workflow.StepConfirmation:
		c := ConfirmationStep(f)
		v.Confirmation = &c
	default:
		v.Search = &SearchView{Query: f.Query}
	}
	return v
}

// ResultsStep lists the schedules found. An empty list is a normal result
// with its own message.
func ResultsStep(f *workflow.Flow) ResultsView {
	v := ResultsView{Query: f.Query, Schedules: f.Schedules}
	if len(f.Schedules) == 0 {
		v.Schedules = []entities.Schedule{}
		v.Message = NoResultsMessage
		v.Actions = []Action{searchAgain}
		return v
	}
	v.Actions = []Action{goBack, searchAgain}
	return v
}

func SeatSelectionStep(f *workflow.Flow) SeatSelectionView {
	v := SeatSelectionView{Seats: make([]SeatView, 0, len(f.Seats)), Actions: []Action{goBack}}
	if f.Schedule != nil {
		v.Schedule = *f.Schedule
		v.Fare = f.Schedule.Fare
	}
	for _, s := range f.Seats {
		v.Seats = append(v.Seats, SeatView{SeatNumber: s.SeatNumber, Available: s.Available})
		if s.Available {
			v.Available++
		}
	}
	return v
}

func PaymentStep(f *workflow.Flow) PaymentView {
	var v PaymentView
	if f.Schedule != nil {
		v.Schedule = *f.Schedule
	}
	if b := f.Booking; b != nil {
		v.BookingID = b.ID
		v.SeatNumbers = b.SeatNumbers
		v.Passenger = b.Passenger
		v.Amount = b.Amount
		v.Currency = b.Currency
	}
	return v
}

// ConfirmationStep shows the outcome of the payment. It offers a new
// booking but never moves on by itself.
func ConfirmationStep(f *workflow.Flow) ConfirmationView {
	v := ConfirmationView{Actions: []Action{newBooking}}
	if b := f.Booking; b != nil {
		v.BookingID = b.ID
		v.SeatNumbers = b.SeatNumbers
		v.Amount = b.Amount
		v.Currency = b.Currency
	}
	if c := f.Confirmation; c != nil {
		v.PaymentIntentID = c.PaymentIntentID
		v.PaymentStatus = c.PaymentStatus
		v.RequiresAction = c.RequiresAction
		if c.RequiresAction {
			v.Actions = []Action{finishPay, newBooking}
		}
		v.ClientSecret = c.ClientSecret
		v.EmailSent = c.EmailSent
		v.SMSSent = c.SMSSent
	}
	return v
}
