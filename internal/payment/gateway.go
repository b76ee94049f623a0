// Package payment is the narrow contract with the external payment provider.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/aircast/flightbooking/internal/domain"
	"github.com/rs/zerolog"
)

// Gateway charges a card. A nil error means the charge was approved;
// domain.ErrPaymentDeclined and domain.ErrPaymentTimeout report the two
// external failure modes.
type Gateway interface {
	Charge(ctx context.Context, amountCents int64, card domain.PaymentCard) error
}

// StubGateway stands in for the real provider in dev mode. Cards whose number
// ends in "0000" are declined so the failure path stays reachable.
type StubGateway struct {
	latency time.Duration
	log     zerolog.Logger
}

func NewStubGateway(latency time.Duration, log zerolog.Logger) *StubGateway {
	return &StubGateway{latency: latency, log: log}
}

func (g *StubGateway) Charge(ctx context.Context, amountCents int64, card domain.PaymentCard) error {
	select {
	case <-time.After(g.latency):
	case <-ctx.Done():
		return domain.ErrPaymentTimeout
	}

	if strings.HasSuffix(card.CardNumber, "0000") {
		g.log.Info().Int64("amount_cents", amountCents).Str("card", card.Masked()).Msg("charge declined")
		return domain.ErrPaymentDeclined
	}

	g.log.Info().Int64("amount_cents", amountCents).Str("card", card.Masked()).Msg("charge approved")
	return nil
}

var _ Gateway = (*StubGateway)(nil)
