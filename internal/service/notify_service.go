package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"nextstop/internal/entities"
)

type EmailSender interface {
	SendBookingConfirmation(ctx context.Context, msg entities.BookingConfirmationEmail) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// confirmationEmailClient is the notification service call.
type confirmationEmailClient interface {
	SendBookingConfirmationEmail(ctx context.Context, msg entities.BookingConfirmationEmail) error
}

// NotificationServiceEmailSender hands the email to the notification
// service, which renders and sends it.
type NotificationServiceEmailSender struct {
	Client confirmationEmailClient
}

func (s NotificationServiceEmailSender) SendBookingConfirmation(ctx context.Context, msg entities.BookingConfirmationEmail) error {
	return s.Client.SendBookingConfirmationEmail(ctx, msg)
}

// SendGridEmailSender renders the confirmation locally and sends it
// through SendGrid.
type SendGridEmailSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

func NewSendGridEmailSender(apiKey, fromEmail, fromName string, logger *slog.Logger) *SendGridEmailSender {
	return &SendGridEmailSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

func (s *SendGridEmailSender) SendBookingConfirmation(ctx context.Context, msg entities.BookingConfirmationEmail) error {
	content, err := renderConfirmationEmail(msg)
	if err != nil {
		return err
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.PassengerName, msg.Email)
	message := mail.NewSingleEmail(from, content.Subject, to, content.Text, content.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: sending to %s: %w", msg.Email, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", response.StatusCode, strings.TrimSpace(response.Body))
	}
	s.logger.InfoContext(ctx, "confirmation email sent via sendgrid",
		"booking_id", msg.BookingID, "status", response.StatusCode)
	return nil
}

// TwilioSMSSender sends text messages from a fixed number.
type TwilioSMSSender struct {
	client *twilio.RestClient
	from   string
	logger *slog.Logger
}

func NewTwilioSMSSender(accountSID, authToken, from string, logger *slog.Logger) *TwilioSMSSender {
	return &TwilioSMSSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   accountSID,
			Password:   authToken,
			AccountSid: accountSID,
		}),
		from:   from,
		logger: logger,
	}
}

func (s *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		return fmt.Errorf("twilio: %q is not an E.164 number", to)
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio: sending to %s: %w", to, err)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.InfoContext(ctx, "sms sent", "sid", *resp.Sid)
	}
	return nil
}
