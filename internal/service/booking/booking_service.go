// Package booking sequences a booking attempt: reserve seats, charge the
// client, then commit or unwind. The payment call never runs under an
// inventory lock; seats are protected by a time-bounded hold instead.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/aircast/flightbooking/internal/allocator"
	"github.com/aircast/flightbooking/internal/domain"
	"github.com/aircast/flightbooking/internal/inventory"
	"github.com/aircast/flightbooking/internal/kafka"
	"github.com/aircast/flightbooking/internal/ledger"
	"github.com/aircast/flightbooking/internal/payment"
	"github.com/rs/zerolog"
)

const (
	EventBookingCreated         = "booking_created"
	EventBookingConfirmed       = "booking_confirmed"
	EventBookingFailed          = "booking_failed"
	EventBookingCancelled       = "booking_cancelled"
	EventReconciliationRequired = "reconciliation_required"
)

type BookingUseCase interface {
	BookFlight(ctx context.Context, input BookFlightInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, ref string) (*domain.Booking, error)
	ListClientBookings(ctx context.Context, clientEmail string, limit, offset int) ([]domain.Booking, error)
}

// SeatAllocator is the slice of the allocator the orchestrator drives.
type SeatAllocator interface {
	Reserve(ctx context.Context, flightID int64, seats int) (*allocator.SeatHold, error)
	Confirm(ctx context.Context, holdID string) error
	Release(ctx context.Context, holdID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookFlightInput struct {
	FlightID    int64
	ClientEmail string
	Passengers  []domain.Passenger
	Payment     domain.PaymentCard
}

type BookingService struct {
	ledger              *ledger.Ledger
	flights             inventory.Store
	seats               SeatAllocator
	payments            payment.Gateway
	producer            Producer
	bookingTopic        string
	reconciliationTopic string
	paymentTimeout      time.Duration
	log                 zerolog.Logger
}

type BookingServiceOption func(*BookingService)

func WithReconciliationTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.reconciliationTopic = topic
	}
}

func NewBookingService(
	ldg *ledger.Ledger,
	flights inventory.Store,
	seats SeatAllocator,
	payments payment.Gateway,
	producer Producer,
	bookingTopic string,
	paymentTimeout time.Duration,
	log zerolog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		ledger:         ldg,
		flights:        flights,
		seats:          seats,
		payments:       payments,
		producer:       producer,
		bookingTopic:   bookingTopic,
		paymentTimeout: paymentTimeout,
		log:            log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// BookFlight runs reserve -> charge -> commit for one validated request. On a
// business failure it returns the FAILED booking together with the typed
// error, so the caller can report both the outcome and the reference.
func (s *BookingService) BookFlight(ctx context.Context, input BookFlightInput) (*domain.Booking, error) {
	if len(input.Passengers) == 0 {
		return nil, domain.NewValidationError("at least one passenger is required")
	}
	if input.ClientEmail == "" {
		return nil, domain.NewValidationError("client email is required")
	}

	flight, err := s.flights.GetFlight(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}

	seatCount := len(input.Passengers)
	booking := &domain.Booking{
		FlightID:    input.FlightID,
		ClientEmail: input.ClientEmail,
		Passengers:  input.Passengers,
		PaymentRef:  input.Payment.Masked(),
		SeatCount:   seatCount,
		AmountCents: flight.CostCents * int64(seatCount),
	}
	ref, err := s.ledger.Record(ctx, booking)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventBookingCreated, booking)

	hold, err := s.seats.Reserve(ctx, input.FlightID, seatCount)
	if err != nil {
		return s.fail(ctx, ref, err)
	}

	// The hold covers the payment round-trip; no inventory lock is held here.
	payCtx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
	err = s.payments.Charge(payCtx, booking.AmountCents, input.Payment)
	cancel()
	if errors.Is(err, context.DeadlineExceeded) {
		err = domain.ErrPaymentTimeout
	}
	if err != nil {
		if relErr := s.seats.Release(ctx, hold.ID); relErr != nil {
			s.log.Error().Err(relErr).Str("ref", ref).Msg("release after payment failure")
		}
		return s.fail(ctx, ref, err)
	}

	if err := s.seats.Confirm(ctx, hold.ID); err != nil {
		if errors.Is(err, domain.ErrHoldExpired) {
			return s.reconcile(ctx, ref, err)
		}
		// Commit refused by inventory: a defect, never a client error.
		s.log.Error().Err(err).Str("ref", ref).Int64("flight_id", input.FlightID).Msg("seat commit failed")
		return s.fail(ctx, ref, err)
	}

	confirmed, err := s.ledger.Transition(ctx, ref, domain.BookingStatusConfirmed, "")
	if err != nil {
		s.log.Error().Err(err).Str("ref", ref).Msg("confirm transition failed")
		return nil, err
	}
	s.publish(ctx, EventBookingConfirmed, confirmed)
	return confirmed, nil
}

// CancelBooking reverses a CONFIRMED booking and reclaims its seats.
// Idempotent: cancelling an already-CANCELLED booking returns the existing
// state. The CAS transition decides the winner, so seats are reclaimed once.
func (s *BookingService) CancelBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	current, err := s.ledger.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	if current.Status != domain.BookingStatusConfirmed {
		return nil, domain.ErrBookingNotCancellable
	}

	cancelled, err := s.ledger.Transition(ctx, ref, domain.BookingStatusCancelled, "")
	if err != nil {
		if errors.Is(err, ledger.ErrStatusConflict) {
			if again, getErr := s.ledger.Get(ctx, ref); getErr == nil && again.Status == domain.BookingStatusCancelled {
				return again, nil
			}
		}
		if errors.Is(err, domain.ErrIllegalTransition) {
			// Lost a race against the booking resolving to FAILED.
			return nil, domain.ErrBookingNotCancellable
		}
		return nil, err
	}

	if err := s.flights.ReclaimSeats(ctx, cancelled.FlightID, cancelled.SeatCount); err != nil {
		s.log.Error().Err(err).Str("ref", ref).Int64("flight_id", cancelled.FlightID).Msg("seat reclaim failed")
	}
	s.publish(ctx, EventBookingCancelled, cancelled)
	return cancelled, nil
}

func (s *BookingService) ListClientBookings(ctx context.Context, clientEmail string, limit, offset int) ([]domain.Booking, error) {
	if clientEmail == "" {
		return nil, domain.NewValidationError("client email is required")
	}
	return s.ledger.ListByClient(ctx, clientEmail, limit, offset)
}

// fail transitions the booking to FAILED and returns it with the original
// typed error.
func (s *BookingService) fail(ctx context.Context, ref string, cause error) (*domain.Booking, error) {
	failed, err := s.ledger.Transition(ctx, ref, domain.BookingStatusFailed, domain.ReasonCode(cause))
	if err != nil {
		s.log.Error().Err(err).Str("ref", ref).Msg("fail transition failed")
		return nil, cause
	}
	s.publish(ctx, EventBookingFailed, failed)
	return failed, cause
}

// reconcile handles the one outcome that must never be dropped silently:
// payment approved but the seat hold already expired. The booking is failed,
// flagged, and announced on the reconciliation topic so a compensating refund
// or re-offer can follow.
func (s *BookingService) reconcile(ctx context.Context, ref string, cause error) (*domain.Booking, error) {
	failed, err := s.ledger.Transition(ctx, ref, domain.BookingStatusFailed, domain.ReasonCode(cause))
	if err != nil {
		s.log.Error().Err(err).Str("ref", ref).Msg("reconcile transition failed")
		return nil, cause
	}
	if err := s.ledger.FlagReconciliation(ctx, ref); err != nil {
		s.log.Error().Err(err).Str("ref", ref).Msg("reconciliation flag failed")
	}
	failed.NeedsReconciliation = true

	s.log.Warn().Str("ref", ref).Int64("flight_id", failed.FlightID).Msg("payment approved after hold expiry, reconciliation required")
	s.publish(ctx, EventBookingFailed, failed)
	if s.reconciliationTopic != "" && s.producer != nil {
		if err := s.producer.Publish(ctx, s.reconciliationTopic, failed.Ref, s.event(EventReconciliationRequired, failed)); err != nil {
			s.log.Error().Err(err).Str("ref", ref).Msg("publish reconciliation event")
		}
	}
	return failed, cause
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Ref, s.event(eventType, booking)); err != nil {
		s.log.Warn().Err(err).Str("ref", booking.Ref).Str("event", eventType).Msg("publish booking event")
	}
}

func (s *BookingService) event(eventType string, booking *domain.Booking) kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:           eventType,
		Ref:            booking.Ref,
		FlightID:       booking.FlightID,
		ClientEmail:    booking.ClientEmail,
		SeatCount:      booking.SeatCount,
		Status:         string(booking.Status),
		Reason:         booking.FailReason,
		AmountCents:    booking.AmountCents,
		Reconciliation: booking.NeedsReconciliation,
		OccurredAt:     time.Now(),
	}
}

var _ BookingUseCase = (*BookingService)(nil)
