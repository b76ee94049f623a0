package repository

import (
	"context"
	"errors"

	"github.com/aircast/flightbooking/internal/domain"
	"github.com/aircast/flightbooking/internal/inventory"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flightColumns = `id, code, origin, destination, departure_time, arrival_time, cost_cents, total_seats, seats_held, seats_committed, full_trip, created_at, updated_at`

// PGInventory is the Postgres-backed flight inventory. Seat mutations are
// single guarded UPDATE statements, so the check and the increment happen in
// one atomic step on the database side.
type PGInventory struct {
	db *pgxpool.Pool
}

func NewPGInventory(db *pgxpool.Pool) *PGInventory {
	return &PGInventory{db: db}
}

func (r *PGInventory) CreateFlight(ctx context.Context, spec domain.FlightSpec) (int64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO flights (code, origin, destination, departure_time, arrival_time, cost_cents, total_seats, full_trip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		spec.Code, spec.Origin, spec.Destination, spec.DepartureTime, spec.ArrivalTime, spec.CostCents, spec.TotalSeats, spec.FullTrip).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PGInventory) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	return scanFlight(row)
}

func (r *PGInventory) ListAvailable(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE seats_held + seats_committed < total_seats
		ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGInventory) UpdateFlight(ctx context.Context, id int64, update domain.FlightUpdate) (*domain.Flight, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1 FOR UPDATE`, id)
	f, err := scanFlight(row)
	if err != nil {
		return nil, err
	}

	if update.DepartureTime != nil {
		f.DepartureTime = *update.DepartureTime
	}
	if update.ArrivalTime != nil {
		f.ArrivalTime = *update.ArrivalTime
	}
	if update.CostCents != nil {
		f.CostCents = *update.CostCents
	}
	if update.TotalSeats != nil {
		if *update.TotalSeats <= 0 {
			return nil, domain.NewValidationError("total seats must be positive")
		}
		if *update.TotalSeats < f.SeatsHeld+f.SeatsCommitted {
			return nil, domain.NewValidationError("total seats below held and committed count")
		}
		f.TotalSeats = *update.TotalSeats
	}
	if !f.DepartureTime.Before(f.ArrivalTime) {
		return nil, domain.NewValidationError("departure must be before arrival")
	}

	row = tx.QueryRow(ctx, `UPDATE flights SET departure_time=$2, arrival_time=$3, cost_cents=$4, total_seats=$5, updated_at=now()
		WHERE id=$1
		RETURNING `+flightColumns,
		id, f.DepartureTime, f.ArrivalTime, f.CostCents, f.TotalSeats)
	updated, err := scanFlight(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PGInventory) TryReserve(ctx context.Context, flightID int64, seats int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET seats_held = seats_held + $2, updated_at = now()
		WHERE id=$1 AND seats_held + seats_committed + $2 <= total_seats`, flightID, seats)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		if _, err := r.GetFlight(ctx, flightID); err != nil {
			return err
		}
		return domain.ErrInsufficientSeats
	}
	return nil
}

func (r *PGInventory) CommitReservation(ctx context.Context, flightID int64, seats int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET seats_held = seats_held - $2, seats_committed = seats_committed + $2, updated_at = now()
		WHERE id=$1 AND seats_held >= $2`, flightID, seats)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrInvariantViolation
	}
	return nil
}

func (r *PGInventory) ReleaseReservation(ctx context.Context, flightID int64, seats int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET seats_held = seats_held - $2, updated_at = now()
		WHERE id=$1 AND seats_held >= $2`, flightID, seats)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrInvariantViolation
	}
	return nil
}

func (r *PGInventory) ReclaimSeats(ctx context.Context, flightID int64, seats int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET seats_committed = seats_committed - $2, updated_at = now()
		WHERE id=$1 AND seats_committed >= $2`, flightID, seats)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrInvariantViolation
	}
	return nil
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.ID, &f.Code, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime,
		&f.CostCents, &f.TotalSeats, &f.SeatsHeld, &f.SeatsCommitted, &f.FullTrip, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

var _ inventory.Store = (*PGInventory)(nil)
