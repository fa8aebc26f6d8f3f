package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"
)

//go:embed schema.sql
var schema string

// Receipt is a row of booking_receipts.
type Receipt struct {
	BookingID       int64
	UserID          int64
	ScheduleID      int64
	TravelDate      string
	SeatNumbers     []string
	Amount          float64
	Currency        string
	PaymentIntentID string
	PaymentStatus   string
	EmailSent       bool
	SMSSent         bool
	CreatedAt       time.Time
}

// Migrate creates the tables the service needs when they are missing.
func Migrate(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("db: applying schema: %w", err)
	}
	return nil
}
