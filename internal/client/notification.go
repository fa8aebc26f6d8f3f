package client

import (
	"context"
	"net/http"

	"nextstop/internal/entities"
)

// SendBookingConfirmationEmail asks the notification service to email the
// passenger. The response body is ignored.
func (c *Client) SendBookingConfirmationEmail(ctx context.Context, msg entities.BookingConfirmationEmail) error {
	return c.do(ctx, call{
		op:     "SendBookingConfirmationEmail",
		method: http.MethodPost,
		url:    c.endpoints.Notification + "/api/notifications/booking-confirmation",
		body:   msg,
	}, nil)
}
