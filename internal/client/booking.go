package client

import (
	"context"
	"net/http"

	"nextstop/internal/entities"
)

// CreateBookingFailureMessage is what the user sees when a booking could
// not be created for any reason.
const CreateBookingFailureMessage = "Failed to create booking. Please try again."

// CreateBooking reserves seats. On failure the response is still populated,
// with Success false and CreateBookingFailureMessage, alongside the error.
func (c *Client) CreateBooking(ctx context.Context, req entities.BookingRequest) (entities.BookingResponse, error) {
	var resp entities.BookingResponse
	err := c.do(ctx, call{
		op:     "CreateBooking",
		method: http.MethodPost,
		url:    c.endpoints.Booking + "/v1/bookings/book-seat",
		body:   req,
	}, &resp)
	if err != nil {
		return entities.BookingResponse{Success: false, Message: CreateBookingFailureMessage}, err
	}
	return resp, nil
}
