// Package allocator turns seat requests into time-bounded holds and resolves
// each hold exactly once: by confirmation, explicit release, or expiry sweep.
package allocator

import (
	"context"
	"sync"
	"time"

	"github.com/aircast/flightbooking/internal/clock"
	"github.com/aircast/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Inventory is the slice of the inventory store the allocator needs.
type Inventory interface {
	TryReserve(ctx context.Context, flightID int64, seats int) error
	CommitReservation(ctx context.Context, flightID int64, seats int) error
	ReleaseReservation(ctx context.Context, flightID int64, seats int) error
}

// SeatHold is a temporary reservation pending payment. It exists only between
// Reserve and Confirm/Release and is never persisted.
type SeatHold struct {
	ID        string
	FlightID  int64
	Seats     int
	ExpiresAt time.Time
}

type Allocator struct {
	inv   Inventory
	clock clock.Clock
	ttl   time.Duration
	log   zerolog.Logger

	mu    sync.Mutex
	holds map[string]SeatHold
}

// New builds an allocator whose holds last ttl, long enough for a payment
// round-trip.
func New(inv Inventory, clk clock.Clock, ttl time.Duration, log zerolog.Logger) *Allocator {
	return &Allocator{
		inv:   inv,
		clock: clk,
		ttl:   ttl,
		log:   log,
		holds: make(map[string]SeatHold),
	}
}

// Reserve acquires seats against the flight's inventory and returns a hold
// with an expiry deadline.
func (a *Allocator) Reserve(ctx context.Context, flightID int64, seats int) (*SeatHold, error) {
	if seats <= 0 {
		return nil, domain.NewValidationError("seat count must be positive")
	}
	if err := a.inv.TryReserve(ctx, flightID, seats); err != nil {
		return nil, err
	}

	hold := SeatHold{
		ID:        uuid.NewString(),
		FlightID:  flightID,
		Seats:     seats,
		ExpiresAt: a.clock.Now().Add(a.ttl),
	}

	a.mu.Lock()
	a.holds[hold.ID] = hold
	a.mu.Unlock()

	return &hold, nil
}

// Confirm converts the hold into committed seats. Past the deadline it
// releases the seats back to inventory and reports ErrHoldExpired instead.
func (a *Allocator) Confirm(ctx context.Context, holdID string) error {
	hold, ok := a.take(holdID)
	if !ok {
		return domain.ErrHoldExpired
	}

	if a.clock.Now().After(hold.ExpiresAt) {
		if err := a.inv.ReleaseReservation(ctx, hold.FlightID, hold.Seats); err != nil {
			a.log.Error().Err(err).Str("hold", holdID).Msg("release of expired hold failed")
		}
		return domain.ErrHoldExpired
	}

	if err := a.inv.CommitReservation(ctx, hold.FlightID, hold.Seats); err != nil {
		// Put the hold back so the seats stay sweepable instead of stranded.
		a.mu.Lock()
		a.holds[hold.ID] = hold
		a.mu.Unlock()
		return err
	}
	return nil
}

// Release returns the hold's seats to inventory. Idempotent: releasing an
// already-resolved or unknown hold is a no-op.
func (a *Allocator) Release(ctx context.Context, holdID string) error {
	hold, ok := a.take(holdID)
	if !ok {
		return nil
	}
	return a.inv.ReleaseReservation(ctx, hold.FlightID, hold.Seats)
}

// SweepExpired releases every hold past its deadline and reports how many
// were reclaimed. Prevents seat leakage from abandoned payment flows.
func (a *Allocator) SweepExpired(ctx context.Context) int {
	now := a.clock.Now()

	a.mu.Lock()
	var expired []SeatHold
	for id, hold := range a.holds {
		if now.After(hold.ExpiresAt) {
			expired = append(expired, hold)
			delete(a.holds, id)
		}
	}
	a.mu.Unlock()

	for _, hold := range expired {
		if err := a.inv.ReleaseReservation(ctx, hold.FlightID, hold.Seats); err != nil {
			a.log.Error().Err(err).Str("hold", hold.ID).Int64("flight_id", hold.FlightID).Msg("sweep release failed")
			continue
		}
		a.log.Info().Str("hold", hold.ID).Int64("flight_id", hold.FlightID).Int("seats", hold.Seats).Msg("expired hold released")
	}
	return len(expired)
}

// Run sweeps on the given interval until ctx is cancelled.
func (a *Allocator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.SweepExpired(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Active reports the number of unresolved holds.
func (a *Allocator) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.holds)
}

// take removes the hold from the active set, making the caller its sole
// resolver. Inventory calls happen after the map lock is dropped so a slow
// flight never blocks holds on other flights.
func (a *Allocator) take(holdID string) (SeatHold, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	hold, ok := a.holds[holdID]
	if ok {
		delete(a.holds, holdID)
	}
	return hold, ok
}
