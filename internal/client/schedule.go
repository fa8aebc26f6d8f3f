package client

import (
	"context"
	"net/http"
	"net/url"

	"nextstop/internal/entities"
	"nextstop/internal/utils"
)

// FetchSchedules lists schedules for a route and day. The travel date sent
// to the bus service is q.TravelDate shifted by the configured day offset.
func (c *Client) FetchSchedules(ctx context.Context, q entities.ScheduleQuery) ([]entities.Schedule, error) {
	const op = "FetchSchedules"

	travelDate, err := utils.ShiftDate(q.TravelDate, c.dateOffset)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindEncode, Err: err}
	}

	params := url.Values{}
	params.Set("sourceCity", q.SourceCity)
	params.Set("destinationCity", q.DestinationCity)
	params.Set("travelDate", travelDate)

	var schedules []entities.Schedule
	err = c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		url:    c.endpoints.Bus + "/schedules/filter?" + params.Encode(),
	}, &schedules)
	if err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = []entities.Schedule{}
	}
	return schedules, nil
}
