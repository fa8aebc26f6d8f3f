// Package workflow models the booking steps a visitor moves through:
// SEARCH, RESULTS, SEAT_SELECTION, PAYMENT, CONFIRMATION.
//
// A Flow only records state and enforces which moves are legal. Calling the
// backends is the job of service.BookingService.
package workflow

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"nextstop/internal/entities"
)

type Step string

const (
	StepSearch        Step = "SEARCH"
	StepResults       Step = "RESULTS"
	StepSeatSelection Step = "SEAT_SELECTION"
	StepPayment       Step = "PAYMENT"
	StepConfirmation  Step = "CONFIRMATION"
)

var (
	ErrInvalidTransition = errors.New("workflow: invalid step transition")
	ErrUnknownSchedule   = errors.New("workflow: schedule is not in the current results")
	ErrNotFound          = errors.New("workflow: flow not found")
)

// TransitionError names the rejected move.
type TransitionError struct {
	From, To Step
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("workflow: cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// forward lists the steps reachable from each step by a forward operation.
// Searching is handled by ShowResults, which is allowed from any step
// before a booking exists.
var forward = map[Step][]Step{
	StepResults:       {StepSeatSelection},
	StepSeatSelection: {StepSeatSelection, StepPayment},
	StepPayment:       {StepConfirmation},
}

var back = map[Step]Step{
	StepResults:       StepSearch,
	StepSeatSelection: StepResults,
}

// Booking is what the booking service confirmed for this flow.
type Booking struct {
	ID             int64              `json:"id"`
	SeatNumbers    []string           `json:"seatNumbers"`
	SeatIDs        []int64            `json:"seatIds"`
	Passenger      entities.Passenger `json:"passenger"`
	Amount         float64            `json:"amount"`
	Currency       string             `json:"currency"`
	UserID         int64              `json:"userId"`
	IdempotencyKey string             `json:"idempotencyKey"`
}

// Confirmation is the outcome of a successful payment.
type Confirmation struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret,omitempty"`
	PaymentStatus   string `json:"paymentStatus"`
	RequiresAction  bool   `json:"requiresAction"`
	EmailSent       bool   `json:"emailSent"`
	SMSSent         bool   `json:"smsSent"`
}

type Flow struct {
	ID           string                      `json:"id"`
	Step         Step                        `json:"step"`
	Query        entities.ScheduleQuery      `json:"query"`
	Schedules    []entities.Schedule         `json:"schedules"`
	Schedule     *entities.Schedule          `json:"schedule,omitempty"`
	Seats        []entities.SeatAvailability `json:"seats"`
	Booking      *Booking                    `json:"booking,omitempty"`
	Confirmation *Confirmation               `json:"confirmation,omitempty"`
	LastError    string                      `json:"lastError,omitempty"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

func New(id string, now time.Time) *Flow {
	return &Flow{ID: id, Step: StepSearch, UpdatedAt: now}
}

// CanMove reports whether a forward operation may take the flow to step to.
func (f *Flow) CanMove(to Step) bool {
	return slices.Contains(forward[f.Step], to)
}

func (f *Flow) move(to Step, now time.Time) error {
	if !f.CanMove(to) {
		return &TransitionError{From: f.Step, To: to}
	}
	f.Step = to
	f.LastError = ""
	f.UpdatedAt = now
	return nil
}

// CanSearch reports whether a new search is allowed. Once a booking is
// committed only Reset starts over.
func (f *Flow) CanSearch() bool {
	return f.Step != StepPayment && f.Step != StepConfirmation
}

// ShowResults records a search and moves to RESULTS. Any earlier schedule
// or seat choice is dropped.
func (f *Flow) ShowResults(q entities.ScheduleQuery, schedules []entities.Schedule, now time.Time) error {
	if !f.CanSearch() {
		return &TransitionError{From: f.Step, To: StepResults}
	}
	f.Step = StepResults
	f.LastError = ""
	f.UpdatedAt = now
	f.Query = q
	f.Schedules = schedules
	f.Schedule = nil
	f.Seats = nil
	return nil
}

// FindSchedule looks a schedule up in the current results.
func (f *Flow) FindSchedule(id int64) (entities.Schedule, bool) {
	for _, s := range f.Schedules {
		if s.ID == id {
			return s, true
		}
	}
	return entities.Schedule{}, false
}

func (f *Flow) ShowSeats(schedule entities.Schedule, seats []entities.SeatAvailability, now time.Time) error {
	if err := f.move(StepSeatSelection, now); err != nil {
		return err
	}
	s := schedule
	f.Schedule = &s
	f.Seats = seats
	return nil
}

// RefreshSeats replaces the seat map without changing step.
func (f *Flow) RefreshSeats(seats []entities.SeatAvailability, now time.Time) {
	f.Seats = seats
	f.UpdatedAt = now
}

func (f *Flow) AwaitPayment(b Booking, now time.Time) error {
	if err := f.move(StepPayment, now); err != nil {
		return err
	}
	f.Booking = &b
	return nil
}

func (f *Flow) Confirm(c Confirmation, now time.Time) error {
	if err := f.move(StepConfirmation, now); err != nil {
		return err
	}
	f.Confirmation = &c
	return nil
}

// AwaitingCustomer reports whether the payment is confirmed on our side but
// still needs the customer to act with the processor.
func (f *Flow) AwaitingCustomer() bool {
	return f.Step == StepConfirmation && f.Confirmation != nil && f.Confirmation.RequiresAction
}

// Settle replaces a confirmation that was waiting on the customer.
func (f *Flow) Settle(c Confirmation, now time.Time) error {
	if !f.AwaitingCustomer() {
		return &TransitionError{From: f.Step, To: StepConfirmation}
	}
	f.Confirmation = &c
	f.LastError = ""
	f.UpdatedAt = now
	return nil
}

// Back returns to the previous step. It is refused once a booking exists,
// because the booking cannot be undone from here.
func (f *Flow) Back(now time.Time) error {
	prev, ok := back[f.Step]
	if !ok {
		return &TransitionError{From: f.Step, To: "BACK"}
	}
	switch prev {
	case StepSearch:
		f.Schedules = nil
	case StepResults:
		f.Schedule = nil
		f.Seats = nil
	}
	f.Step = prev
	f.LastError = ""
	f.UpdatedAt = now
	return nil
}

// Reset starts a fresh search, keeping the flow id.
func (f *Flow) Reset(now time.Time) {
	*f = Flow{ID: f.ID, Step: StepSearch, UpdatedAt: now}
}

// Fail records a failed operation without moving the flow.
func (f *Flow) Fail(err error, now time.Time) {
	f.LastError = err.Error()
	f.UpdatedAt = now
}

// SeatLabels maps requested labels onto the seat map's own spelling. An
// exact match wins, then a case-insensitive one. Labels not on the map are
// returned unchanged.
func (f *Flow) SeatLabels(requested []string) []string {
	out := make([]string, len(requested))
	for i, n := range requested {
		out[i] = n
		if slices.ContainsFunc(f.Seats, func(s entities.SeatAvailability) bool { return s.SeatNumber == n }) {
			continue
		}
		for _, s := range f.Seats {
			if strings.EqualFold(s.SeatNumber, n) {
				out[i] = s.SeatNumber
				break
			}
		}
	}
	return out
}

// UnavailableSeats returns the requested seat numbers that are not free in
// the flow's seat map, including unknown ones.
func (f *Flow) UnavailableSeats(seatNumbers []string) []string {
	free := make(map[string]bool, len(f.Seats))
	for _, s := range f.Seats {
		free[s.SeatNumber] = s.Available
	}
	var taken []string
	for _, n := range seatNumbers {
		if !free[n] {
			taken = append(taken, n)
		}
	}
	return taken
}
