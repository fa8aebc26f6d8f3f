package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"nextstop/internal/entities"
)

//go:embed templates/*.html
var templates embed.FS

var confirmationTemplate = template.Must(template.ParseFS(templates, "templates/booking_confirmation.html"))

type emailContent struct {
	Subject string
	Text    string
	HTML    string
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(currency))
}

func renderConfirmationEmail(msg entities.BookingConfirmationEmail) (emailContent, error) {
	seats := strings.Join(msg.SeatNumbers, ", ")
	total := formatAmount(msg.TotalAmount, msg.Currency)

	text := fmt.Sprintf(
		"Hello %s,\n\nYour NextStop booking #%d is confirmed.\n\n"+
			"Route: %s to %s\n"+
			"Travel date: %s\n"+
			"Departure: %s\n"+
			"Seats: %s\n"+
			"Total paid: %s\n\n"+
			"Thank you for travelling with NextStop.",
		msg.PassengerName, msg.BookingID, msg.SourceCity, msg.DestinationCity,
		msg.TravelDate, msg.DepartureTime, seats, total,
	)

	var html bytes.Buffer
	err := confirmationTemplate.Execute(&html, struct {
		entities.BookingConfirmationEmail
		Seats string
		Total string
	}{msg, seats, total})
	if err != nil {
		return emailContent{}, fmt.Errorf("rendering confirmation email for booking %d: %w", msg.BookingID, err)
	}

	return emailContent{
		Subject: fmt.Sprintf("Your NextStop booking #%d is confirmed", msg.BookingID),
		Text:    text,
		HTML:    html.String(),
	}, nil
}

func confirmationSMS(msg entities.BookingConfirmationEmail) string {
	return fmt.Sprintf("NextStop: booking #%d confirmed. %s to %s on %s, departs %s. Seats %s.",
		msg.BookingID, msg.SourceCity, msg.DestinationCity, msg.TravelDate, msg.DepartureTime,
		strings.Join(msg.SeatNumbers, ", "))
}

// SenderService delivers booking confirmations. Delivery problems are
// logged and reported through the returned flags, never as errors: the
// booking is already paid for by the time it runs.
type SenderService struct {
	email  EmailSender
	sms    SMSSender
	logger *slog.Logger
}

// NewSenderService builds a sender. sms may be nil to disable text messages.
func NewSenderService(email EmailSender, sms SMSSender, logger *slog.Logger) *SenderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SenderService{email: email, sms: sms, logger: logger}
}

func (s *SenderService) SendBookingConfirmation(ctx context.Context, msg entities.BookingConfirmationEmail, phone string) (emailSent, smsSent bool) {
	if msg.Email != "" {
		if err := s.email.SendBookingConfirmation(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "booking confirmed but confirmation email failed",
				"booking_id", msg.BookingID, "error", err)
		} else {
			emailSent = true
		}
	}

	if s.sms != nil && phone != "" {
		if err := s.sms.SendSMS(ctx, phone, confirmationSMS(msg)); err != nil {
			s.logger.ErrorContext(ctx, "booking confirmed but confirmation sms failed",
				"booking_id", msg.BookingID, "error", err)
		} else {
			smsSent = true
		}
	}
	return emailSent, smsSent
}
