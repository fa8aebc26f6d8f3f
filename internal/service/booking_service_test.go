package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstop/internal/client"
	"nextstop/internal/entities"
	"nextstop/internal/repository"
	"nextstop/internal/session"
	"nextstop/internal/workflow"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBackend struct {
	mu            sync.Mutex
	schedules     []entities.Schedule
	seats         []entities.SeatAvailability
	seatIDs       []int64
	booking       entities.BookingResponse
	bookingErr    error
	payment       entities.PaymentResponse
	paymentErr    error
	scheduleErr   error
	paymentDelay  time.Duration
	payCalls      int32
	lastPayment   entities.PaymentRequest
	lastKey       string
	lastBooking   entities.BookingRequest
	mappedNumbers []string
}

func (b *fakeBackend) FetchSchedules(_ context.Context, _ entities.ScheduleQuery) ([]entities.Schedule, error) {
	return b.schedules, b.scheduleErr
}

func (b *fakeBackend) FetchSeatAvailability(_ context.Context, _ int64) ([]entities.SeatAvailability, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]entities.SeatAvailability(nil), b.seats...), nil
}

func (b *fakeBackend) GetSeatIDsBySeatNumbers(_ context.Context, _ int64, numbers []string) ([]int64, error) {
	b.mappedNumbers = numbers
	return b.seatIDs, nil
}

func (b *fakeBackend) CreateBooking(_ context.Context, req entities.BookingRequest) (entities.BookingResponse, error) {
	b.lastBooking = req
	if b.bookingErr != nil {
		return entities.BookingResponse{Success: false, Message: client.CreateBookingFailureMessage}, b.bookingErr
	}
	return b.booking, nil
}

func (b *fakeBackend) ProcessPayment(_ context.Context, req entities.PaymentRequest, key string) (entities.PaymentResponse, error) {
	atomic.AddInt32(&b.payCalls, 1)
	time.Sleep(b.paymentDelay)
	b.mu.Lock()
	b.lastPayment, b.lastKey = req, key
	b.mu.Unlock()
	return b.payment, b.paymentErr
}

type recordingConfirmer struct {
	mu       sync.Mutex
	messages []entities.BookingConfirmationEmail
	phones   []string
	email    bool
}

func (c *recordingConfirmer) SendBookingConfirmation(_ context.Context, msg entities.BookingConfirmationEmail, phone string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	c.phones = append(c.phones, phone)
	return c.email, false
}

type fixedVerifier struct {
	status string
	err    error
}

func (v fixedVerifier) PaymentIntentStatus(context.Context, string) (string, error) {
	return v.status, v.err
}

// stagedVerifier reports whatever status the test sets last.
type stagedVerifier struct {
	mu     sync.Mutex
	status string
	calls  int
}

func (v *stagedVerifier) set(status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
}

func (v *stagedVerifier) PaymentIntentStatus(context.Context, string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	return v.status, nil
}

func bookingID(id int64) *int64 { return &id }

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		schedules: []entities.Schedule{{
			ID:            7,
			Route:         entities.Route{SourceCity: "Colombo", DestinationCity: "Kandy"},
			DepartureTime: "08:30",
			Fare:          12.50,
		}},
		seats: []entities.SeatAvailability{
			{SeatID: 101, SeatNumber: "A1", Available: true},
			{SeatID: 102, SeatNumber: "A2", Available: true},
			{SeatID: 103, SeatNumber: "A3", Available: false},
		},
		seatIDs: []int64{101, 102},
		booking: entities.BookingResponse{Success: true, Message: "booked", BookingID: bookingID(555)},
		payment: entities.PaymentResponse{Success: true, PaymentIntentID: "pi_1", ClientSecret: "pi_1_secret"},
	}
}

type harness struct {
	svc       *BookingService
	backend   *fakeBackend
	flows     *repository.MemoryFlowStore
	receipts  *repository.MemoryReceiptRepository
	confirmer *recordingConfirmer
}

func newHarness(t *testing.T, verifier PaymentVerifier) *harness {
	t.Helper()
	h := &harness{
		backend:   newFakeBackend(),
		flows:     repository.NewMemoryFlowStore(time.Hour),
		receipts:  repository.NewMemoryReceiptRepository(),
		confirmer: &recordingConfirmer{email: true},
	}
	ids := 0
	h.svc = NewBookingService(BookingConfig{
		Backend:   h.backend,
		Flows:     h.flows,
		Receipts:  h.receipts,
		Confirmer: h.confirmer,
		Verifier:  verifier,
		Currency:  "USD",
		Logger:    discardLogger(),
		Now:       func() time.Time { return testNow },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	})
	return h
}

var customer = session.Session{
	Token: "tok",
	User:  session.User{ID: 42, FullName: "Nimal Perera", Email: "nimal@example.com"},
}

var colomboKandy = entities.ScheduleQuery{SourceCity: "Colombo", DestinationCity: "Kandy", TravelDate: "2025-03-14"}

// toPayment runs a flow up to the PAYMENT step and returns its id.
func (h *harness) toPayment(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	f, err := h.svc.Flow(ctx, "")
	require.NoError(t, err)
	_, err = h.svc.Search(ctx, f.ID, colomboKandy)
	require.NoError(t, err)
	_, err = h.svc.SelectSchedule(ctx, f.ID, 7)
	require.NoError(t, err)
	f, err = h.svc.Reserve(ctx, f.ID, customer, []string{"a1", "A2"}, entities.Passenger{Phone: "+94771234567"})
	require.NoError(t, err)
	require.Equal(t, workflow.StepPayment, f.Step)
	return f.ID
}

func TestFlowStartsAtSearch(t *testing.T) {
	h := newHarness(t, nil)
	f, err := h.svc.Flow(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, workflow.StepSearch, f.Step)
	assert.Equal(t, "id-1", f.ID)

	again, err := h.svc.Flow(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, again.ID)
	assert.Equal(t, 1, h.flows.Len())
}

func TestSearchValidatesQuery(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.Search(context.Background(), "", entities.ScheduleQuery{SourceCity: "Colombo", DestinationCity: "Kandy", TravelDate: "14/03/2025"})
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "travelDate", ve.Field)
}

func TestSearchWithNoResults(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.schedules = []entities.Schedule{}

	f, err := h.svc.Search(context.Background(), "", colomboKandy)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepResults, f.Step)
	assert.Empty(t, f.Schedules)
}

func TestSearchFailureKeepsStep(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.scheduleErr = &client.Error{Op: "FetchSchedules", Kind: client.KindStatus, StatusCode: 500}

	_, err := h.svc.Search(context.Background(), "", colomboKandy)
	require.Error(t, err)

	stored, err := h.flows.Get(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StepSearch, stored.Step)
	assert.Contains(t, stored.LastError, "HTTP 500")
}

func TestSelectScheduleMustBeInResults(t *testing.T) {
	h := newHarness(t, nil)
	f, err := h.svc.Search(context.Background(), "", colomboKandy)
	require.NoError(t, err)

	_, err = h.svc.SelectSchedule(context.Background(), f.ID, 99)
	assert.ErrorIs(t, err, workflow.ErrUnknownSchedule)

	f, err = h.svc.SelectSchedule(context.Background(), f.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepSeatSelection, f.Step)
	assert.Len(t, f.Seats, 3)
}

func TestReserveRequiresSession(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.Reserve(context.Background(), "", session.Session{}, []string{"A1"}, entities.Passenger{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestReserveBooksSeats(t *testing.T) {
	h := newHarness(t, nil)
	id := h.toPayment(t)

	f, err := h.svc.Flow(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, f.Booking)
	assert.Equal(t, int64(555), f.Booking.ID)
	assert.Equal(t, []string{"A1", "A2"}, f.Booking.SeatNumbers)
	assert.Equal(t, 25.0, f.Booking.Amount)
	assert.Equal(t, "usd", f.Booking.Currency)
	assert.Equal(t, "Nimal Perera", f.Booking.Passenger.Name)
	assert.Equal(t, "nimal@example.com", f.Booking.Passenger.Email)
	assert.NotEmpty(t, f.Booking.IdempotencyKey)

	assert.Equal(t, []string{"A1", "A2"}, h.backend.mappedNumbers)
	assert.Equal(t, entities.BookingRequest{UserID: 42, ScheduleID: 7, SeatIDs: []int64{101, 102}, TravelDate: "2025-03-14"}, h.backend.lastBooking)
}

func TestReserveRejectsTakenSeats(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	f, _ := h.svc.Search(ctx, "", colomboKandy)
	_, err := h.svc.SelectSchedule(ctx, f.ID, 7)
	require.NoError(t, err)

	f, err = h.svc.Reserve(ctx, f.ID, customer, []string{"A1", "A3"}, entities.Passenger{})
	var su SeatsUnavailableError
	require.ErrorAs(t, err, &su)
	assert.Equal(t, []string{"A3"}, su.Seats)
	assert.Equal(t, workflow.StepSeatSelection, f.Step)
	assert.Empty(t, h.backend.lastBooking.SeatIDs)
}

func TestReserveBookingFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.bookingErr = &client.Error{Op: "CreateBooking", Kind: client.KindStatus, StatusCode: 409}
	ctx := context.Background()
	f, _ := h.svc.Search(ctx, "", colomboKandy)
	_, err := h.svc.SelectSchedule(ctx, f.ID, 7)
	require.NoError(t, err)

	f, err = h.svc.Reserve(ctx, f.ID, customer, []string{"A1", "A2"}, entities.Passenger{})
	var bf BookingFailedError
	require.ErrorAs(t, err, &bf)
	assert.Equal(t, client.CreateBookingFailureMessage, bf.Message)
	assert.Equal(t, workflow.StepSeatSelection, f.Step)
	assert.Equal(t, client.CreateBookingFailureMessage, f.LastError)
}

func TestPayConfirmsAndStoresReceipt(t *testing.T) {
	h := newHarness(t, nil)
	id := h.toPayment(t)

	f, err := h.svc.Pay(context.Background(), id, customer, "pm_card_visa")
	require.NoError(t, err)
	assert.Equal(t, workflow.StepConfirmation, f.Step)
	require.NotNil(t, f.Confirmation)
	assert.Equal(t, "pi_1", f.Confirmation.PaymentIntentID)
	assert.Equal(t, PaymentStatusAccepted, f.Confirmation.PaymentStatus)
	assert.Empty(t, f.Confirmation.ClientSecret)
	assert.True(t, f.Confirmation.EmailSent)

	assert.Equal(t, entities.PaymentRequest{
		UserID: 42, ScheduleID: 7, TravelDate: "2025-03-14", Amount: 25, PaymentMethodID: "pm_card_visa", Currency: "usd",
	}, h.backend.lastPayment)
	assert.Equal(t, f.Booking.IdempotencyKey, h.backend.lastKey)

	require.Len(t, h.confirmer.messages, 1)
	msg := h.confirmer.messages[0]
	assert.Equal(t, int64(555), msg.BookingID)
	assert.Equal(t, "Colombo", msg.SourceCity)
	assert.Equal(t, "08:30", msg.DepartureTime)
	assert.Equal(t, "+94771234567", h.confirmer.phones[0])

	receipts, err := h.svc.Receipts(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, int64(555), receipts[0].BookingID)
	assert.True(t, receipts[0].EmailSent)
}

func TestPayRecordsEmailFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.confirmer.email = false
	id := h.toPayment(t)

	f, err := h.svc.Pay(context.Background(), id, customer, "pm_card_visa")
	require.NoError(t, err)
	assert.Equal(t, workflow.StepConfirmation, f.Step)
	assert.False(t, f.Confirmation.EmailSent)
}

func TestPayDeclinedStaysAtPayment(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.payment = entities.PaymentResponse{Success: false, Message: "card declined"}
	id := h.toPayment(t)

	f, err := h.svc.Pay(context.Background(), id, customer, "pm_card_visa")
	var pf PaymentFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "card declined", pf.Message)
	assert.Equal(t, workflow.StepPayment, f.Step)
	assert.Empty(t, h.confirmer.messages)
}

func TestPayRequiresActionExposesClientSecret(t *testing.T) {
	h := newHarness(t, fixedVerifier{status: "requires_action"})
	id := h.toPayment(t)

	f, err := h.svc.Pay(context.Background(), id, customer, "pm_card_3ds")
	require.NoError(t, err)
	assert.True(t, f.Confirmation.RequiresAction)
	assert.Equal(t, "pi_1_secret", f.Confirmation.ClientSecret)
	assert.Empty(t, h.confirmer.messages)
}

func TestPayCanceledByProcessor(t *testing.T) {
	h := newHarness(t, fixedVerifier{status: "canceled"})
	id := h.toPayment(t)

	f, err := h.svc.Pay(context.Background(), id, customer, "pm_card_visa")
	var pf PaymentFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, workflow.StepPayment, f.Step)
}

func TestPayVerifierErrorKeepsAcceptedStatus(t *testing.T) {
	h := newHarness(t, fixedVerifier{err: errors.New("stripe down")})
	id := h.toPayment(t)

	f, err := h.svc.Pay(context.Background(), id, customer, "pm_card_visa")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusAccepted, f.Confirmation.PaymentStatus)
}

func TestPayByOtherUserForbidden(t *testing.T) {
	h := newHarness(t, nil)
	id := h.toPayment(t)

	other := session.Session{Token: "x", User: session.User{ID: 9}}
	_, err := h.svc.Pay(context.Background(), id, other, "pm_card_visa")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, atomic.LoadInt32(&h.backend.payCalls))
}

func TestConcurrentPayCallsCollapse(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.paymentDelay = 50 * time.Millisecond
	id := h.toPayment(t)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Pay(context.Background(), id, customer, "pm_card_visa")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&h.backend.payCalls))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
		}
	}
	f, err := h.svc.Flow(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepConfirmation, f.Step)
}

func TestConcurrentPayFromAnotherUserIsForbidden(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.paymentDelay = 50 * time.Millisecond
	id := h.toPayment(t)
	other := session.Session{Token: "x", User: session.User{ID: 9}}

	var wg sync.WaitGroup
	var ownerErr, otherErr error
	var otherFlow *workflow.Flow
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, ownerErr = h.svc.Pay(context.Background(), id, customer, "pm_card_visa")
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		otherFlow, otherErr = h.svc.Pay(context.Background(), id, other, "pm_card_visa")
	}()
	wg.Wait()

	require.NoError(t, ownerErr)
	assert.ErrorIs(t, otherErr, ErrForbidden)
	assert.Nil(t, otherFlow)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.backend.payCalls))
}

func TestReserveKeepsBackendSeatSpelling(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.seats = []entities.SeatAvailability{
		{SeatID: 201, SeatNumber: "1a", Available: true},
		{SeatID: 202, SeatNumber: "1b", Available: true},
	}
	h.backend.seatIDs = []int64{201, 202}
	ctx := context.Background()
	f, _ := h.svc.Search(ctx, "", colomboKandy)
	_, err := h.svc.SelectSchedule(ctx, f.ID, 7)
	require.NoError(t, err)

	f, err = h.svc.Reserve(ctx, f.ID, customer, []string{"1A", " 1b", "1a"}, entities.Passenger{})
	require.NoError(t, err)
	assert.Equal(t, workflow.StepPayment, f.Step)
	assert.Equal(t, []string{"1a", "1b"}, h.backend.mappedNumbers)
	assert.Equal(t, []string{"1a", "1b"}, f.Booking.SeatNumbers)
}

func TestConfirmPaymentAfterCustomerAction(t *testing.T) {
	v := &stagedVerifier{status: "requires_action"}
	h := newHarness(t, v)
	id := h.toPayment(t)
	ctx := context.Background()

	f, err := h.svc.Pay(ctx, id, customer, "pm_card_3ds")
	require.NoError(t, err)
	require.True(t, f.AwaitingCustomer())
	assert.Empty(t, h.confirmer.messages)

	// Still waiting on the customer: nothing changes.
	f, err = h.svc.ConfirmPayment(ctx, id, customer)
	require.NoError(t, err)
	assert.True(t, f.AwaitingCustomer())
	assert.Empty(t, h.confirmer.messages)

	_, err = h.svc.ConfirmPayment(ctx, id, session.Session{Token: "x", User: session.User{ID: 9}})
	assert.ErrorIs(t, err, ErrForbidden)

	v.set("succeeded")
	f, err = h.svc.ConfirmPayment(ctx, id, customer)
	require.NoError(t, err)
	assert.False(t, f.AwaitingCustomer())
	assert.Equal(t, "succeeded", f.Confirmation.PaymentStatus)
	assert.Empty(t, f.Confirmation.ClientSecret)
	assert.True(t, f.Confirmation.EmailSent)
	require.Len(t, h.confirmer.messages, 1)

	r, err := h.svc.Receipt(ctx, customer, 555)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", r.PaymentStatus)
	assert.True(t, r.EmailSent)

	// Settled flows cannot be confirmed twice.
	_, err = h.svc.ConfirmPayment(ctx, id, customer)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Len(t, h.confirmer.messages, 1)
}

func TestConfirmPaymentCanceledByProcessor(t *testing.T) {
	v := &stagedVerifier{status: "requires_action"}
	h := newHarness(t, v)
	id := h.toPayment(t)
	ctx := context.Background()
	_, err := h.svc.Pay(ctx, id, customer, "pm_card_3ds")
	require.NoError(t, err)

	v.set("canceled")
	f, err := h.svc.ConfirmPayment(ctx, id, customer)
	var pf PaymentFailedError
	require.ErrorAs(t, err, &pf)
	assert.False(t, f.AwaitingCustomer())
	assert.Equal(t, "canceled", f.Confirmation.PaymentStatus)
	assert.NotEmpty(t, f.LastError)
	assert.Empty(t, h.confirmer.messages)

	r, err := h.svc.Receipt(ctx, customer, 555)
	require.NoError(t, err)
	assert.Equal(t, "canceled", r.PaymentStatus)
}

func TestConfirmPaymentBeforePayIsConflict(t *testing.T) {
	h := newHarness(t, &stagedVerifier{status: "succeeded"})
	id := h.toPayment(t)
	_, err := h.svc.ConfirmPayment(context.Background(), id, customer)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestBackAndReset(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	f, _ := h.svc.Search(ctx, "", colomboKandy)
	_, err := h.svc.SelectSchedule(ctx, f.ID, 7)
	require.NoError(t, err)

	f, err = h.svc.Back(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepResults, f.Step)
	assert.Len(t, f.Schedules, 1)

	f, err = h.svc.Back(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepSearch, f.Step)

	_, err = h.svc.Back(ctx, f.ID)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	id := h.toPayment(t)
	_, err = h.svc.Back(ctx, id)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	_, err = h.svc.Search(ctx, id, colomboKandy)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	f, err = h.svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepSearch, f.Step)
	assert.Equal(t, id, f.ID)
	assert.Nil(t, f.Booking)
}

func TestReceiptVisibility(t *testing.T) {
	h := newHarness(t, nil)
	id := h.toPayment(t)
	_, err := h.svc.Pay(context.Background(), id, customer, "pm_card_visa")
	require.NoError(t, err)

	r, err := h.svc.Receipt(context.Background(), customer, 555)
	require.NoError(t, err)
	assert.Equal(t, int64(42), r.UserID)

	stranger := session.Session{Token: "x", User: session.User{ID: 9}}
	_, err = h.svc.Receipt(context.Background(), stranger, 555)
	assert.ErrorIs(t, err, repository.ErrReceiptNotFound)

	admin := session.Session{Token: "x", User: session.User{ID: 1, Roles: []string{RoleAdmin}}}
	_, err = h.svc.Receipt(context.Background(), admin, 555)
	assert.NoError(t, err)

	_, err = h.svc.Receipts(context.Background(), session.Session{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// TestBookingAgainstBackends runs the whole flow through the REST client.
func TestBookingAgainstBackends(t *testing.T) {
	var travelDate, idemKey atomic.Value
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("GET /bus-service/schedules/filter", func(w http.ResponseWriter, r *http.Request) {
		travelDate.Store(r.URL.Query().Get("travelDate"))
		writeJSON(w, []entities.Schedule{{ID: 7, Fare: 10, Route: entities.Route{SourceCity: "Colombo", DestinationCity: "Galle"}}})
	})
	mux.HandleFunc("GET /booking-service/v1/bookings/seats/availability/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []entities.SeatAvailability{{SeatID: 1, SeatNumber: "B4", Available: true}})
	})
	mux.HandleFunc("POST /booking-service/v1/bookings/seats/map-seat-numbers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []int64{1})
	})
	mux.HandleFunc("POST /booking-service/v1/bookings/book-seat", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, entities.BookingResponse{Success: true, BookingID: bookingID(900)})
	})
	mux.HandleFunc("POST /payment-service/api/payments/pay", func(w http.ResponseWriter, r *http.Request) {
		idemKey.Store(r.Header.Get("Idempotency-Key"))
		writeJSON(w, entities.PaymentResponse{Success: true, PaymentIntentID: "pi_9"})
	})
	mux.HandleFunc("POST /notification-service/api/notifications/booking-confirmation", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := client.New(client.Config{
		Endpoints: client.Endpoints{
			Bus:          srv.URL + "/bus-service",
			Booking:      srv.URL + "/booking-service",
			Payment:      srv.URL + "/payment-service",
			Notification: srv.URL + "/notification-service",
		},
		Logger:                 discardLogger(),
		ScheduleDateOffsetDays: 1,
	})
	svc := NewBookingService(BookingConfig{
		Backend:   c,
		Flows:     repository.NewMemoryFlowStore(time.Hour),
		Receipts:  repository.NewMemoryReceiptRepository(),
		Confirmer: NewSenderService(NotificationServiceEmailSender{Client: c}, nil, discardLogger()),
		Logger:    discardLogger(),
	})

	ctx := context.Background()
	f, err := svc.Search(ctx, "", entities.ScheduleQuery{SourceCity: "Colombo", DestinationCity: "Galle", TravelDate: "2024-12-31"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", travelDate.Load())

	_, err = svc.SelectSchedule(ctx, f.ID, 7)
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, f.ID, customer, []string{"b4"}, entities.Passenger{})
	require.NoError(t, err)
	f, err = svc.Pay(ctx, f.ID, customer, "pm_card_visa")
	require.NoError(t, err)

	assert.Equal(t, workflow.StepConfirmation, f.Step)
	assert.False(t, f.Confirmation.EmailSent)
	assert.Equal(t, f.Booking.IdempotencyKey, idemKey.Load())
}
