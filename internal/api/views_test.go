package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstop/internal/entities"
	"nextstop/internal/workflow"
)

func TestResultsStepEmpty(t *testing.T) {
	f := workflow.New("f1", time.Now())
	require.NoError(t, f.ShowResults(entities.ScheduleQuery{SourceCity: "Colombo", DestinationCity: "Jaffna", TravelDate: "2025-03-14"}, nil, time.Now()))

	v := ResultsStep(f)
	assert.Equal(t, NoResultsMessage, v.Message)
	assert.NotNil(t, v.Schedules)
	assert.Empty(t, v.Schedules)
	require.Len(t, v.Actions, 1)
	assert.Equal(t, "Search Again", v.Actions[0].Label)
	assert.Equal(t, "/api/booking/reset", v.Actions[0].Href)
	assert.Equal(t, workflow.StepResults, f.Step, "rendering must not move the flow")
}

func TestResultsStepWithSchedules(t *testing.T) {
	f := workflow.New("f1", time.Now())
	require.NoError(t, f.ShowResults(entities.ScheduleQuery{}, []entities.Schedule{{ID: 1}, {ID: 2}}, time.Now()))

	v := ResultsStep(f)
	assert.Empty(t, v.Message)
	assert.Len(t, v.Schedules, 2)
}

func TestRenderPicksStepSection(t *testing.T) {
	now := time.Now()
	f := workflow.New("f1", now)
	assert.NotNil(t, Render(f).Search)

	require.NoError(t, f.ShowResults(entities.ScheduleQuery{}, []entities.Schedule{{ID: 1, Fare: 4}}, now))
	require.NoError(t, f.ShowSeats(entities.Schedule{ID: 1, Fare: 4}, []entities.SeatAvailability{
		{SeatNumber: "A1", Available: true}, {SeatNumber: "A2"},
	}, now))
	v := Render(f)
	require.NotNil(t, v.SeatSelection)
	assert.Nil(t, v.Results)
	assert.Equal(t, 1, v.SeatSelection.Available)
	assert.Equal(t, 4.0, v.SeatSelection.Fare)

	require.NoError(t, f.AwaitPayment(workflow.Booking{ID: 9, SeatNumbers: []string{"A1"}, Amount: 4, Currency: "usd"}, now))
	p := Render(f).Payment
	require.NotNil(t, p)
	assert.Equal(t, int64(9), p.BookingID)
	assert.Equal(t, "usd", p.Currency)

	require.NoError(t, f.Confirm(workflow.Confirmation{PaymentIntentID: "pi_1", PaymentStatus: "succeeded", EmailSent: true}, now))
	c := Render(f).Confirmation
	require.NotNil(t, c)
	assert.Equal(t, "pi_1", c.PaymentIntentID)
	assert.True(t, c.EmailSent)
	assert.Empty(t, c.ClientSecret)
	assert.Equal(t, []Action{newBooking}, c.Actions)
	assert.Equal(t, workflow.StepConfirmation, f.Step)
}

func TestConfirmationAwaitingCustomerOffersCompletePayment(t *testing.T) {
	f := &workflow.Flow{
		Step:    workflow.StepConfirmation,
		Booking: &workflow.Booking{ID: 9},
		Confirmation: &workflow.Confirmation{
			PaymentIntentID: "pi_3ds", PaymentStatus: "requires_action", RequiresAction: true, ClientSecret: "pi_3ds_secret",
		},
	}
	c := Render(f).Confirmation
	require.NotNil(t, c)
	assert.True(t, c.RequiresAction)
	assert.Equal(t, "pi_3ds_secret", c.ClientSecret)
	require.Len(t, c.Actions, 2)
	assert.Equal(t, "/api/booking/pay/confirm", c.Actions[0].Href)
}
