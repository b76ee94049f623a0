// Package inventory holds per-flight seat counters. Every mutation is atomic
// per flight so the invariant seatsHeld + seatsCommitted <= totalSeats holds
// under concurrent booking attempts.
package inventory

import (
	"context"

	"github.com/aircast/flightbooking/internal/domain"
)

type Store interface {
	CreateFlight(ctx context.Context, spec domain.FlightSpec) (int64, error)
	GetFlight(ctx context.Context, id int64) (*domain.Flight, error)
	ListAvailable(ctx context.Context) ([]domain.Flight, error)
	UpdateFlight(ctx context.Context, id int64, update domain.FlightUpdate) (*domain.Flight, error)

	// TryReserve atomically checks seatsHeld + seatsCommitted + seats against
	// total capacity and increments seatsHeld. The check and the increment are
	// a single critical section; callers never see a stale count win.
	TryReserve(ctx context.Context, flightID int64, seats int) error

	// CommitReservation moves seats from held to committed. Fails with
	// ErrInvariantViolation if fewer than seats are held, which indicates a
	// caller bug.
	CommitReservation(ctx context.Context, flightID int64, seats int) error

	// ReleaseReservation returns held seats to the available pool.
	ReleaseReservation(ctx context.Context, flightID int64, seats int) error

	// ReclaimSeats returns committed seats to the available pool on
	// cancellation.
	ReclaimSeats(ctx context.Context, flightID int64, seats int) error
}
