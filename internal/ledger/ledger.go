// Package ledger records bookings and their lifecycle. All status changes go
// through the legal-transition table; anything else is a caller bug.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/aircast/flightbooking/internal/clock"
	"github.com/aircast/flightbooking/internal/domain"
	"github.com/google/uuid"
)

// Store is the persistence contract for bookings. UpdateStatus is
// compare-and-swap: it applies only while the booking still has the expected
// current status, so two racing transitions cannot both win.
type Store interface {
	Insert(ctx context.Context, booking *domain.Booking) error
	GetByRef(ctx context.Context, ref string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, ref string, from, to domain.BookingStatus, reason string, at time.Time) (*domain.Booking, error)
	FlagReconciliation(ctx context.Context, ref string) error
	ListByClient(ctx context.Context, clientEmail string, limit, offset int) ([]domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time, reason string) ([]domain.Booking, error)
}

// ErrStatusConflict reports a lost CAS race: the booking moved to another
// status between read and update.
var ErrStatusConflict = errors.New("booking status changed concurrently")

type Ledger struct {
	store Store
	clock clock.Clock
}

func New(store Store, clk clock.Clock) *Ledger {
	return &Ledger{store: store, clock: clk}
}

// Record stores a new PENDING booking and returns its reference.
func (l *Ledger) Record(ctx context.Context, booking *domain.Booking) (string, error) {
	booking.Ref = uuid.NewString()
	booking.Status = domain.BookingStatusPending
	booking.CreatedAt = l.clock.Now()
	if err := l.store.Insert(ctx, booking); err != nil {
		return "", err
	}
	return booking.Ref, nil
}

func (l *Ledger) Get(ctx context.Context, ref string) (*domain.Booking, error) {
	return l.store.GetByRef(ctx, ref)
}

// Transition moves a booking to the next status, enforcing the lifecycle
// table. Returns ErrIllegalTransition for moves the table forbids and
// ErrStatusConflict when a concurrent transition got there first.
func (l *Ledger) Transition(ctx context.Context, ref string, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	current, err := l.store.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, domain.ErrIllegalTransition
	}
	return l.store.UpdateStatus(ctx, ref, current.Status, to, reason, l.clock.Now())
}

// FlagReconciliation marks a booking whose payment and seat outcomes
// disagree.
func (l *Ledger) FlagReconciliation(ctx context.Context, ref string) error {
	return l.store.FlagReconciliation(ctx, ref)
}

// ListByClient returns the client's bookings, newest first. A non-positive
// limit means no limit; the offset makes the listing restartable.
func (l *Ledger) ListByClient(ctx context.Context, clientEmail string, limit, offset int) ([]domain.Booking, error) {
	return l.store.ListByClient(ctx, clientEmail, limit, offset)
}

// FailStalePending fails every booking still PENDING since before deadline.
// Crash recovery: a booking stuck PENDING far beyond the hold TTL lost its
// orchestrator mid-flight.
func (l *Ledger) FailStalePending(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	return l.store.ExpirePendingBefore(ctx, deadline, domain.ReasonHoldExpired)
}
