package client

import (
	"context"
	"net/http"
	"strconv"

	"nextstop/internal/entities"
)

func (c *Client) FetchSeatAvailability(ctx context.Context, scheduleID int64) ([]entities.SeatAvailability, error) {
	var seats []entities.SeatAvailability
	err := c.do(ctx, call{
		op:     "FetchSeatAvailability",
		method: http.MethodGet,
		url:    c.endpoints.Booking + "/v1/bookings/seats/availability/" + strconv.FormatInt(scheduleID, 10),
	}, &seats)
	if err != nil {
		return nil, err
	}
	if seats == nil {
		seats = []entities.SeatAvailability{}
	}
	return seats, nil
}

// GetSeatIDsBySeatNumbers resolves seat labels to seat ids. The returned
// slice is in the order the booking service sent it.
func (c *Client) GetSeatIDsBySeatNumbers(ctx context.Context, scheduleID int64, seatNumbers []string) ([]int64, error) {
	if seatNumbers == nil {
		seatNumbers = []string{}
	}
	var ids []int64
	err := c.do(ctx, call{
		op:     "GetSeatIDsBySeatNumbers",
		method: http.MethodPost,
		url:    c.endpoints.Booking + "/v1/bookings/seats/map-seat-numbers",
		body:   entities.SeatMappingRequest{ScheduleID: scheduleID, SeatNumbers: seatNumbers},
	}, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
