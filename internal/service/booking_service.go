package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"nextstop/internal/db"
	"nextstop/internal/entities"
	"nextstop/internal/metrics"
	"nextstop/internal/repository"
	"nextstop/internal/session"
	"nextstop/internal/utils"
	"nextstop/internal/workflow"
)

// BookingBackend is the set of backend calls a booking flow makes.
// *client.Client satisfies it.
type BookingBackend interface {
	FetchSchedules(ctx context.Context, q entities.ScheduleQuery) ([]entities.Schedule, error)
	FetchSeatAvailability(ctx context.Context, scheduleID int64) ([]entities.SeatAvailability, error)
	GetSeatIDsBySeatNumbers(ctx context.Context, scheduleID int64, seatNumbers []string) ([]int64, error)
	CreateBooking(ctx context.Context, req entities.BookingRequest) (entities.BookingResponse, error)
	ProcessPayment(ctx context.Context, req entities.PaymentRequest, idempotencyKey string) (entities.PaymentResponse, error)
}

// Confirmer tells the passenger their booking went through.
type Confirmer interface {
	SendBookingConfirmation(ctx context.Context, msg entities.BookingConfirmationEmail, phone string) (emailSent, smsSent bool)
}

// PaymentStatusAccepted is recorded when the payment service accepted the
// charge and no processor lookup is configured.
const PaymentStatusAccepted = "accepted"

const lockStripes = 64

type BookingConfig struct {
	Backend   BookingBackend
	Flows     repository.FlowStore
	Receipts  repository.ReceiptRepository
	Confirmer Confirmer
	// Verifier is optional. When set, each payment intent is looked up
	// with the processor after the payment service accepts it.
	Verifier PaymentVerifier
	Currency string
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

// BookingService drives a visitor's flow through search, seat selection,
// booking and payment. Operations on the same flow are serialized.
type BookingService struct {
	backend   BookingBackend
	flows     repository.FlowStore
	receipts  repository.ReceiptRepository
	confirmer Confirmer
	verifier  PaymentVerifier
	currency  string
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	locks    [lockStripes]sync.Mutex
	payments singleflight.Group
}

func NewBookingService(cfg BookingConfig) *BookingService {
	s := &BookingService{
		backend:   cfg.Backend,
		flows:     cfg.Flows,
		receipts:  cfg.Receipts,
		confirmer: cfg.Confirmer,
		verifier:  cfg.Verifier,
		currency:  strings.ToLower(cfg.Currency),
		logger:    cfg.Logger,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	if s.currency == "" {
		s.currency = "usd"
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *BookingService) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// load returns the stored flow, or a fresh one under a new id when id is
// empty, unknown or expired.
func (s *BookingService) load(ctx context.Context, id string) (*workflow.Flow, error) {
	if id != "" {
		f, err := s.flows.Get(ctx, id)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, workflow.ErrNotFound) {
			return nil, fmt.Errorf("loading flow %s: %w", id, err)
		}
	}
	return workflow.New(s.newID(), s.now()), nil
}

// update runs fn on the flow under its lock and stores the result. A flow
// is saved even when fn fails so that a recorded LastError is kept.
func (s *BookingService) update(ctx context.Context, id string, fn func(f *workflow.Flow) error) (*workflow.Flow, error) {
	unlock := s.lock(id)
	defer unlock()

	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	opErr := fn(f)
	if err := s.flows.Save(ctx, f); err != nil {
		return nil, fmt.Errorf("saving flow %s: %w", f.ID, err)
	}
	return f, opErr
}

// fail records a backend failure on the flow and passes err through.
func (s *BookingService) fail(ctx context.Context, f *workflow.Flow, op string, err error) error {
	s.logger.WarnContext(ctx, "booking step failed", "flow_id", f.ID, "step", f.Step, "op", op, "error", err)
	f.Fail(err, s.now())
	return err
}

// Flow returns the visitor's flow, starting one when needed.
func (s *BookingService) Flow(ctx context.Context, id string) (*workflow.Flow, error) {
	unlock := s.lock(id)
	defer unlock()

	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.ID != id {
		if err := s.flows.Save(ctx, f); err != nil {
			return nil, fmt.Errorf("saving flow %s: %w", f.ID, err)
		}
	}
	return f, nil
}

func validateQuery(q entities.ScheduleQuery) (entities.ScheduleQuery, error) {
	q.SourceCity = strings.TrimSpace(q.SourceCity)
	q.DestinationCity = strings.TrimSpace(q.DestinationCity)
	q.TravelDate = strings.TrimSpace(q.TravelDate)
	switch {
	case q.SourceCity == "":
		return q, ValidationError{Field: "sourceCity", Msg: "is required"}
	case q.DestinationCity == "":
		return q, ValidationError{Field: "destinationCity", Msg: "is required"}
	case q.TravelDate == "":
		return q, ValidationError{Field: "travelDate", Msg: "is required"}
	}
	if _, err := utils.ParseDate(q.TravelDate); err != nil {
		return q, ValidationError{Field: "travelDate", Msg: "must be a date in YYYY-MM-DD form"}
	}
	return q, nil
}

// Search looks up schedules and moves the flow to RESULTS. An empty result
// is a valid outcome.
func (s *BookingService) Search(ctx context.Context, flowID string, q entities.ScheduleQuery) (*workflow.Flow, error) {
	q, err := validateQuery(q)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, flowID, func(f *workflow.Flow) error {
		if !f.CanSearch() {
			return &workflow.TransitionError{From: f.Step, To: workflow.StepResults}
		}
		schedules, err := s.backend.FetchSchedules(ctx, q)
		if err != nil {
			return s.fail(ctx, f, "FetchSchedules", err)
		}
		return f.ShowResults(q, schedules, s.now())
	})
}

// SelectSchedule loads the seat map of one of the current results.
func (s *BookingService) SelectSchedule(ctx context.Context, flowID string, scheduleID int64) (*workflow.Flow, error) {
	return s.update(ctx, flowID, func(f *workflow.Flow) error {
		if !f.CanMove(workflow.StepSeatSelection) {
			return &workflow.TransitionError{From: f.Step, To: workflow.StepSeatSelection}
		}
		schedule, ok := f.FindSchedule(scheduleID)
		if !ok {
			return workflow.ErrUnknownSchedule
		}
		seats, err := s.backend.FetchSeatAvailability(ctx, scheduleID)
		if err != nil {
			return s.fail(ctx, f, "FetchSeatAvailability", err)
		}
		return f.ShowSeats(schedule, seats, s.now())
	})
}

func bookingAmount(fare float64, seats int) float64 {
	return math.Round(fare*float64(seats)*100) / 100
}

// Reserve books the chosen seats for the signed-in user and moves the flow
// to PAYMENT. Passenger details default to the session user.
func (s *BookingService) Reserve(ctx context.Context, flowID string, sess session.Session, seatNumbers []string, passenger entities.Passenger) (*workflow.Flow, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if sess.User.ID == 0 {
		return nil, ValidationError{Field: "user.id", Msg: "session has no user id"}
	}
	seatNumbers = utils.NormalizeSeatNumbers(seatNumbers)
	if len(seatNumbers) == 0 {
		return nil, ValidationError{Field: "seatNumbers", Msg: "choose at least one seat"}
	}
	passenger.Name = strings.TrimSpace(passenger.Name)
	passenger.Email = strings.TrimSpace(passenger.Email)
	passenger.Phone = strings.TrimSpace(passenger.Phone)
	if passenger.Name == "" {
		passenger.Name = sess.User.FullName
	}
	if passenger.Email == "" {
		passenger.Email = sess.User.Email
	}
	if passenger.Name == "" {
		return nil, ValidationError{Field: "passenger.name", Msg: "is required"}
	}
	if passenger.Email == "" {
		return nil, ValidationError{Field: "passenger.email", Msg: "is required"}
	}

	return s.update(ctx, flowID, func(f *workflow.Flow) error {
		if !f.CanMove(workflow.StepPayment) || f.Schedule == nil {
			return &workflow.TransitionError{From: f.Step, To: workflow.StepPayment}
		}
		schedule := *f.Schedule

		seats, err := s.backend.FetchSeatAvailability(ctx, schedule.ID)
		if err != nil {
			return s.fail(ctx, f, "FetchSeatAvailability", err)
		}
		f.RefreshSeats(seats, s.now())
		seatNumbers = f.SeatLabels(seatNumbers)
		if taken := f.UnavailableSeats(seatNumbers); len(taken) > 0 {
			return s.fail(ctx, f, "CheckAvailability", SeatsUnavailableError{Seats: taken})
		}

		seatIDs, err := s.backend.GetSeatIDsBySeatNumbers(ctx, schedule.ID, seatNumbers)
		if err != nil {
			return s.fail(ctx, f, "GetSeatIDsBySeatNumbers", err)
		}
		if len(seatIDs) != len(seatNumbers) {
			return s.fail(ctx, f, "GetSeatIDsBySeatNumbers", BookingFailedError{
				Message: fmt.Sprintf("expected %d seat ids, booking service returned %d", len(seatNumbers), len(seatIDs)),
			})
		}

		resp, err := s.backend.CreateBooking(ctx, entities.BookingRequest{
			UserID:     sess.User.ID,
			ScheduleID: schedule.ID,
			SeatIDs:    seatIDs,
			TravelDate: f.Query.TravelDate,
		})
		if err != nil {
			return s.fail(ctx, f, "CreateBooking", BookingFailedError{Message: resp.Message, Err: err})
		}
		if !resp.Success || resp.BookingID == nil {
			msg := resp.Message
			if msg == "" {
				msg = "booking was not confirmed"
			}
			return s.fail(ctx, f, "CreateBooking", BookingFailedError{Message: msg})
		}

		s.logger.InfoContext(ctx, "booking created",
			"flow_id", f.ID, "booking_id", *resp.BookingID, "schedule_id", schedule.ID, "seats", seatNumbers)
		return f.AwaitPayment(workflow.Booking{
			ID:             *resp.BookingID,
			SeatNumbers:    seatNumbers,
			SeatIDs:        seatIDs,
			Passenger:      passenger,
			Amount:         bookingAmount(schedule.Fare, len(seatNumbers)),
			Currency:       s.currency,
			UserID:         sess.User.ID,
			IdempotencyKey: s.newID(),
		}, s.now())
	})
}

// Pay charges for the flow's booking and moves it to CONFIRMATION.
// Concurrent calls for one flow share a single attempt, and the attempt
// runs to completion even if the caller that started it goes away.
func (s *BookingService) Pay(ctx context.Context, flowID string, sess session.Session, paymentMethodID string) (*workflow.Flow, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	paymentMethodID = strings.TrimSpace(paymentMethodID)
	if paymentMethodID == "" {
		return nil, ValidationError{Field: "paymentMethodId", Msg: "is required"}
	}
	key := flowID + ":" + strconv.FormatInt(sess.User.ID, 10)
	v, err, shared := s.payments.Do(key, func() (any, error) {
		return s.pay(context.WithoutCancel(ctx), flowID, sess, paymentMethodID)
	})
	if shared {
		s.logger.DebugContext(ctx, "payment attempt shared", "flow_id", flowID)
	}
	return ownFlow(v, err)
}

// ownFlow hides the flow from a caller that does not own its booking.
func ownFlow(v any, err error) (*workflow.Flow, error) {
	if errors.Is(err, ErrForbidden) {
		return nil, err
	}
	f, _ := v.(*workflow.Flow)
	return f, err
}

func (s *BookingService) pay(ctx context.Context, flowID string, sess session.Session, paymentMethodID string) (*workflow.Flow, error) {
	return s.update(ctx, flowID, func(f *workflow.Flow) error {
		if f.Booking != nil && f.Booking.UserID != sess.User.ID {
			return ErrForbidden
		}
		if !f.CanMove(workflow.StepConfirmation) || f.Booking == nil || f.Schedule == nil {
			return &workflow.TransitionError{From: f.Step, To: workflow.StepConfirmation}
		}
		b := *f.Booking

		resp, err := s.backend.ProcessPayment(ctx, entities.PaymentRequest{
			UserID:          b.UserID,
			ScheduleID:      f.Schedule.ID,
			TravelDate:      f.Query.TravelDate,
			Amount:          b.Amount,
			PaymentMethodID: paymentMethodID,
			Currency:        b.Currency,
		}, b.IdempotencyKey)
		if err != nil {
			metrics.ObservePayment("failed")
			return s.fail(ctx, f, "ProcessPayment", PaymentFailedError{Message: "payment could not be processed", Err: err})
		}
		if !resp.Success {
			metrics.ObservePayment("failed")
			msg := resp.Message
			if msg == "" {
				msg = "payment was declined"
			}
			return s.fail(ctx, f, "ProcessPayment", PaymentFailedError{Message: msg})
		}

		status := PaymentStatusAccepted
		if s.verifier != nil && resp.PaymentIntentID != "" {
			st, err := s.verifier.PaymentIntentStatus(ctx, resp.PaymentIntentID)
			if err != nil {
				s.logger.WarnContext(ctx, "payment intent lookup failed",
					"flow_id", f.ID, "payment_intent_id", resp.PaymentIntentID, "error", err)
			} else {
				status = st
			}
		}
		if paymentDeclined(status) {
			metrics.ObservePayment("failed")
			return s.fail(ctx, f, "VerifyPayment", PaymentFailedError{Message: "payment was canceled by the processor"})
		}

		c := workflow.Confirmation{
			PaymentIntentID: resp.PaymentIntentID,
			PaymentStatus:   status,
			RequiresAction:  requiresCustomerAction(status),
		}
		if c.RequiresAction {
			metrics.ObservePayment("requires_action")
			c.ClientSecret = resp.ClientSecret
		} else {
			metrics.ObservePayment("confirmed")
			c.EmailSent, c.SMSSent = s.confirmer.SendBookingConfirmation(ctx, confirmationMessage(f, b), b.Passenger.Phone)
		}

		s.saveReceipt(ctx, f, b, c)
		s.logger.InfoContext(ctx, "booking paid",
			"flow_id", f.ID, "booking_id", b.ID, "payment_intent_id", c.PaymentIntentID,
			"payment_status", c.PaymentStatus, "email_sent", c.EmailSent)
		return f.Confirm(c, s.now())
	})
}

// ConfirmPayment re-checks a payment that was waiting on the customer, for
// example after a card challenge in the browser. Once the processor reports
// the intent settled, the confirmation is sent and the receipt updated. An
// intent that still needs the customer leaves the flow as it was.
func (s *BookingService) ConfirmPayment(ctx context.Context, flowID string, sess session.Session) (*workflow.Flow, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	key := "confirm:" + flowID + ":" + strconv.FormatInt(sess.User.ID, 10)
	v, err, _ := s.payments.Do(key, func() (any, error) {
		return s.confirmPayment(context.WithoutCancel(ctx), flowID, sess)
	})
	return ownFlow(v, err)
}

func (s *BookingService) confirmPayment(ctx context.Context, flowID string, sess session.Session) (*workflow.Flow, error) {
	return s.update(ctx, flowID, func(f *workflow.Flow) error {
		if f.Booking != nil && f.Booking.UserID != sess.User.ID {
			return ErrForbidden
		}
		if !f.AwaitingCustomer() || f.Booking == nil || f.Schedule == nil {
			return &workflow.TransitionError{From: f.Step, To: workflow.StepConfirmation}
		}
		b := *f.Booking
		if s.verifier == nil {
			return s.fail(ctx, f, "VerifyPayment", PaymentFailedError{Message: "payment status cannot be checked"})
		}
		c := *f.Confirmation
		status, err := s.verifier.PaymentIntentStatus(ctx, c.PaymentIntentID)
		if err != nil {
			return s.fail(ctx, f, "VerifyPayment", PaymentFailedError{Message: "payment status could not be checked", Err: err})
		}
		c.PaymentStatus = status
		if requiresCustomerAction(status) {
			return f.Settle(c, s.now())
		}

		c.RequiresAction = false
		c.ClientSecret = ""
		if paymentDeclined(status) {
			metrics.ObservePayment("failed")
			s.saveReceipt(ctx, f, b, c)
			if err := f.Settle(c, s.now()); err != nil {
				return err
			}
			return s.fail(ctx, f, "VerifyPayment", PaymentFailedError{Message: "payment was canceled by the processor"})
		}

		metrics.ObservePayment("confirmed")
		c.EmailSent, c.SMSSent = s.confirmer.SendBookingConfirmation(ctx, confirmationMessage(f, b), b.Passenger.Phone)
		s.saveReceipt(ctx, f, b, c)
		s.logger.InfoContext(ctx, "payment settled",
			"flow_id", f.ID, "booking_id", b.ID, "payment_intent_id", c.PaymentIntentID,
			"payment_status", c.PaymentStatus, "email_sent", c.EmailSent)
		return f.Settle(c, s.now())
	})
}

func confirmationMessage(f *workflow.Flow, b workflow.Booking) entities.BookingConfirmationEmail {
	return entities.BookingConfirmationEmail{
		Email:           b.Passenger.Email,
		PassengerName:   b.Passenger.Name,
		BookingID:       b.ID,
		SourceCity:      f.Schedule.Route.SourceCity,
		DestinationCity: f.Schedule.Route.DestinationCity,
		TravelDate:      f.Query.TravelDate,
		DepartureTime:   f.Schedule.DepartureTime,
		SeatNumbers:     b.SeatNumbers,
		TotalAmount:     b.Amount,
		Currency:        b.Currency,
	}
}

// saveReceipt keeps a local record of a paid booking. The payment has
// already happened, so a storage failure is logged and not returned.
func (s *BookingService) saveReceipt(ctx context.Context, f *workflow.Flow, b workflow.Booking, c workflow.Confirmation) {
	if s.receipts == nil {
		return
	}
	err := s.receipts.Save(ctx, db.Receipt{
		BookingID:       b.ID,
		UserID:          b.UserID,
		ScheduleID:      f.Schedule.ID,
		TravelDate:      f.Query.TravelDate,
		SeatNumbers:     b.SeatNumbers,
		Amount:          b.Amount,
		Currency:        b.Currency,
		PaymentIntentID: c.PaymentIntentID,
		PaymentStatus:   c.PaymentStatus,
		EmailSent:       c.EmailSent,
		SMSSent:         c.SMSSent,
		CreatedAt:       s.now().UTC(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "saving receipt failed", "booking_id", b.ID, "error", err)
	}
}

// Back returns to the previous step where that is allowed.
func (s *BookingService) Back(ctx context.Context, flowID string) (*workflow.Flow, error) {
	return s.update(ctx, flowID, func(f *workflow.Flow) error {
		return f.Back(s.now())
	})
}

// Reset clears the flow back to an empty search.
func (s *BookingService) Reset(ctx context.Context, flowID string) (*workflow.Flow, error) {
	return s.update(ctx, flowID, func(f *workflow.Flow) error {
		f.Reset(s.now())
		return nil
	})
}

func toReceipt(r db.Receipt) entities.Receipt {
	return entities.Receipt{
		BookingID:       r.BookingID,
		UserID:          r.UserID,
		ScheduleID:      r.ScheduleID,
		TravelDate:      r.TravelDate,
		SeatNumbers:     r.SeatNumbers,
		Amount:          r.Amount,
		Currency:        r.Currency,
		PaymentIntentID: r.PaymentIntentID,
		PaymentStatus:   r.PaymentStatus,
		EmailSent:       r.EmailSent,
		SMSSent:         r.SMSSent,
		CreatedAt:       r.CreatedAt,
	}
}

// Receipts lists the signed-in user's paid bookings, newest first.
func (s *BookingService) Receipts(ctx context.Context, sess session.Session) ([]entities.Receipt, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	rows, err := s.receipts.ListByUser(ctx, sess.User.ID)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	out := make([]entities.Receipt, 0, len(rows))
	for _, r := range rows {
		out = append(out, toReceipt(r))
	}
	return out, nil
}

// Receipt returns one receipt. Users see only their own; admins see all.
func (s *BookingService) Receipt(ctx context.Context, sess session.Session, bookingID int64) (entities.Receipt, error) {
	if !sess.IsAuthenticated() {
		return entities.Receipt{}, ErrUnauthenticated
	}
	r, err := s.receipts.Get(ctx, bookingID)
	if err != nil {
		return entities.Receipt{}, err
	}
	if r.UserID != sess.User.ID && !sess.HasRole(RoleAdmin) {
		return entities.Receipt{}, repository.ErrReceiptNotFound
	}
	return toReceipt(r), nil
}
