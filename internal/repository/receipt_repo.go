package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/lib/pq"

	"nextstop/internal/db"
)

var ErrReceiptNotFound = errors.New("receipt not found")

type ReceiptRepository interface {
	Save(ctx context.Context, r db.Receipt) error
	Get(ctx context.Context, bookingID int64) (db.Receipt, error)
	ListByUser(ctx context.Context, userID int64) ([]db.Receipt, error)
}

type PostgresReceiptRepository struct {
	DB *sql.DB
}

func NewPostgresReceiptRepository(conn *sql.DB) *PostgresReceiptRepository {
	return &PostgresReceiptRepository{DB: conn}
}

// Save inserts the receipt, overwriting an earlier one for the same booking.
func (r *PostgresReceiptRepository) Save(ctx context.Context, rec db.Receipt) error {
	query := `
		INSERT INTO booking_receipts (
			booking_id, user_id, schedule_id, travel_date, seat_numbers, amount, currency,
			payment_intent_id, payment_status, email_sent, sms_sent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (booking_id) DO UPDATE SET
			payment_intent_id = EXCLUDED.payment_intent_id,
			payment_status = EXCLUDED.payment_status,
			email_sent = EXCLUDED.email_sent,
			sms_sent = EXCLUDED.sms_sent`

	_, err := r.DB.ExecContext(ctx, query,
		rec.BookingID,
		rec.UserID,
		rec.ScheduleID,
		rec.TravelDate,
		pq.Array(rec.SeatNumbers),
		rec.Amount,
		rec.Currency,
		rec.PaymentIntentID,
		rec.PaymentStatus,
		rec.EmailSent,
		rec.SMSSent,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving receipt for booking %d: %w", rec.BookingID, err)
	}
	return nil
}

const receiptColumns = `booking_id, user_id, schedule_id, to_char(travel_date, 'YYYY-MM-DD'), seat_numbers, ` +
	`amount, currency, payment_intent_id, payment_status, email_sent, sms_sent, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (db.Receipt, error) {
	var rec db.Receipt
	err := row.Scan(
		&rec.BookingID,
		&rec.UserID,
		&rec.ScheduleID,
		&rec.TravelDate,
		pq.Array(&rec.SeatNumbers),
		&rec.Amount,
		&rec.Currency,
		&rec.PaymentIntentID,
		&rec.PaymentStatus,
		&rec.EmailSent,
		&rec.SMSSent,
		&rec.CreatedAt,
	)
	return rec, err
}

func (r *PostgresReceiptRepository) Get(ctx context.Context, bookingID int64) (db.Receipt, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM booking_receipts WHERE booking_id = $1`, bookingID)
	rec, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Receipt{}, ErrReceiptNotFound
	}
	if err != nil {
		return db.Receipt{}, fmt.Errorf("error loading receipt %d: %w", bookingID, err)
	}
	return rec, nil
}

func (r *PostgresReceiptRepository) ListByUser(ctx context.Context, userID int64) ([]db.Receipt, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+receiptColumns+` FROM booking_receipts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying receipts for user %d: %w", userID, err)
	}
	defer rows.Close()

	receipts := []db.Receipt{}
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning receipt: %w", err)
		}
		receipts = append(receipts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating receipts: %w", err)
	}
	return receipts, nil
}

// MemoryReceiptRepository keeps receipts for the life of the process. Used
// when no database is configured.
type MemoryReceiptRepository struct {
	mu       sync.RWMutex
	receipts map[int64]db.Receipt
}

func NewMemoryReceiptRepository() *MemoryReceiptRepository {
	return &MemoryReceiptRepository{receipts: make(map[int64]db.Receipt)}
}

func (r *MemoryReceiptRepository) Save(_ context.Context, rec db.Receipt) error {
	rec.SeatNumbers = slices.Clone(rec.SeatNumbers)
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.receipts[rec.BookingID]; ok {
		rec.CreatedAt = prev.CreatedAt
	}
	r.receipts[rec.BookingID] = rec
	return nil
}

func (r *MemoryReceiptRepository) Get(_ context.Context, bookingID int64) (db.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.receipts[bookingID]
	if !ok {
		return db.Receipt{}, ErrReceiptNotFound
	}
	rec.SeatNumbers = slices.Clone(rec.SeatNumbers)
	return rec, nil
}

func (r *MemoryReceiptRepository) ListByUser(_ context.Context, userID int64) ([]db.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []db.Receipt{}
	for _, rec := range r.receipts {
		if rec.UserID == userID {
			rec.SeatNumbers = slices.Clone(rec.SeatNumbers)
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
