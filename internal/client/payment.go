package client

import (
	"context"
	"net/http"

	"nextstop/internal/entities"
)

// ProcessPayment charges for a booking. A non-empty idempotencyKey is sent
// as the Idempotency-Key header.
func (c *Client) ProcessPayment(ctx context.Context, req entities.PaymentRequest, idempotencyKey string) (entities.PaymentResponse, error) {
	rc := call{
		op:     "ProcessPayment",
		method: http.MethodPost,
		url:    c.endpoints.Payment + "/api/payments/pay",
		body:   req,
	}
	if idempotencyKey != "" {
		rc.header = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}
	var resp entities.PaymentResponse
	if err := c.do(ctx, rc, &resp); err != nil {
		return entities.PaymentResponse{}, err
	}
	return resp, nil
}
