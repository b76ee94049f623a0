// Package notify delivers booking notifications to clients. The current
// sender writes to the log; a mail provider slots in behind the same method.
package notify

import (
	"context"

	"github.com/aircast/flightbooking/internal/kafka"
	"github.com/rs/zerolog"
)

type Sender struct {
	log zerolog.Logger
}

func NewSender(log zerolog.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(_ context.Context, event kafka.BookingEvent) error {
	s.log.Info().
		Str("to", event.ClientEmail).
		Str("event", event.Type).
		Str("ref", event.Ref).
		Int64("flight_id", event.FlightID).
		Int("seats", event.SeatCount).
		Str("status", event.Status).
		Msg("booking notification")
	return nil
}
