package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aircast/flightbooking/internal/domain"
	"github.com/aircast/flightbooking/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, ref, flight_id, client_email, passengers, payment_ref, status, seat_count, amount_cents, fail_reason, needs_reconciliation, created_at, resolved_at, cancelled_at`

// PGLedger is the Postgres-backed booking store. Status updates carry the
// expected current status in the WHERE clause, which makes them
// compare-and-swap.
type PGLedger struct {
	db *pgxpool.Pool
}

func NewPGLedger(db *pgxpool.Pool) *PGLedger {
	return &PGLedger{db: db}
}

func (r *PGLedger) Insert(ctx context.Context, booking *domain.Booking) error {
	passengers, err := json.Marshal(booking.Passengers)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `INSERT INTO bookings (ref, flight_id, client_email, passengers, payment_ref, status, seat_count, amount_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		booking.Ref, booking.FlightID, booking.ClientEmail, passengers, booking.PaymentRef,
		booking.Status, booking.SeatCount, booking.AmountCents, booking.CreatedAt).
		Scan(&booking.ID)
}

func (r *PGLedger) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE ref=$1`, ref)
	return scanBooking(row)
}

func (r *PGLedger) UpdateStatus(ctx context.Context, ref string, from, to domain.BookingStatus, reason string, at time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET
			status = $3,
			fail_reason = CASE WHEN $3 = 'FAILED' THEN $4 ELSE fail_reason END,
			resolved_at = CASE WHEN $3 IN ('CONFIRMED', 'FAILED') THEN $5 ELSE resolved_at END,
			cancelled_at = CASE WHEN $3 = 'CANCELLED' THEN $5 ELSE cancelled_at END
		WHERE ref = $1 AND status = $2
		RETURNING `+bookingColumns,
		ref, from, to, reason, at)
	booking, err := scanBooking(row)
	if errors.Is(err, domain.ErrBookingNotFound) {
		// Either the ref is unknown or the CAS lost; look again to tell.
		if _, getErr := r.GetByRef(ctx, ref); getErr != nil {
			return nil, getErr
		}
		return nil, ledger.ErrStatusConflict
	}
	return booking, err
}

func (r *PGLedger) FlagReconciliation(ctx context.Context, ref string) error {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET needs_reconciliation = true WHERE ref=$1`, ref)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGLedger) ListByClient(ctx context.Context, clientEmail string, limit, offset int) ([]domain.Booking, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE client_email=$1 ORDER BY created_at DESC OFFSET $2`
	args := []interface{}{clientEmail, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGLedger) ExpirePendingBefore(ctx context.Context, deadline time.Time, reason string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, fail_reason=$2, resolved_at=now()
		WHERE status=$3 AND created_at <= $4
		RETURNING `+bookingColumns,
		domain.BookingStatusFailed, reason, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var passengers []byte
	err := row.Scan(&b.ID, &b.Ref, &b.FlightID, &b.ClientEmail, &passengers, &b.PaymentRef,
		&b.Status, &b.SeatCount, &b.AmountCents, &b.FailReason, &b.NeedsReconciliation,
		&b.CreatedAt, &b.ResolvedAt, &b.CancelledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(passengers) > 0 {
		if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

var _ ledger.Store = (*PGLedger)(nil)
