package service

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// PaymentVerifier looks up the processor's view of a payment intent.
type PaymentVerifier interface {
	PaymentIntentStatus(ctx context.Context, paymentIntentID string) (string, error)
}

type StripeService struct {
	intents *paymentintent.Client
}

func NewStripeService(secretKey string) *StripeService {
	return &StripeService{
		intents: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}
}

func (s *StripeService) PaymentIntentStatus(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.intents.Get(paymentIntentID, params)
	if err != nil {
		return "", fmt.Errorf("stripe: retrieving payment intent %s: %w", paymentIntentID, err)
	}
	return string(pi.Status), nil
}

// requiresCustomerAction reports whether the browser still has to act on
// the intent, e.g. 3-D Secure, before funds move.
func requiresCustomerAction(status string) bool {
	switch stripe.PaymentIntentStatus(status) {
	case stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod:
		return true
	}
	return false
}

// paymentDeclined reports a terminal failure of the intent.
func paymentDeclined(status string) bool {
	return stripe.PaymentIntentStatus(status) == stripe.PaymentIntentStatusCanceled
}
