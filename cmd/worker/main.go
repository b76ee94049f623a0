package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aircast/flightbooking/config"
	"github.com/aircast/flightbooking/internal/clock"
	"github.com/aircast/flightbooking/internal/kafka"
	"github.com/aircast/flightbooking/internal/ledger"
	"github.com/aircast/flightbooking/internal/logger"
	"github.com/aircast/flightbooking/internal/notify"
	"github.com/aircast/flightbooking/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The worker delivers client notifications from the booking events stream,
// alerts on reconciliation cases, and fails bookings left PENDING by a
// crashed API process.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if !cfg.Kafka.Enabled() {
		log.Fatal().Msg("worker requires kafka brokers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var bookingLedger *ledger.Ledger
	if cfg.Database.Enabled() {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		defer pool.Close()
		bookingLedger = ledger.New(repository.NewPGLedger(pool), clock.Real{})
	}

	sender := notify.NewSender(log)

	events := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic, log)
	defer events.Close()
	go func() {
		if err := events.Consume(ctx, sender.Send); err != nil {
			log.Error().Err(err).Msg("booking events consumer stopped")
		}
	}()

	if cfg.Kafka.ReconciliationTopic != "" {
		reconciliation := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ReconciliationTopic, log)
		defer reconciliation.Close()
		go func() {
			err := reconciliation.Consume(ctx, func(_ context.Context, event kafka.BookingEvent) error {
				log.Warn().
					Str("ref", event.Ref).
					Int64("flight_id", event.FlightID).
					Int64("amount_cents", event.AmountCents).
					Msg("reconciliation required: payment approved without seats")
				return nil
			})
			if err != nil {
				log.Error().Err(err).Msg("reconciliation consumer stopped")
			}
		}()
	}

	sweep := time.NewTicker(time.Duration(cfg.Worker.SweepIntervalSeconds) * time.Second)
	defer sweep.Stop()

	pendingTTL := time.Duration(cfg.Worker.PendingTTLMinutes) * time.Minute

	for {
		select {
		case <-sweep.C:
			if bookingLedger == nil {
				continue
			}
			stale, err := bookingLedger.FailStalePending(ctx, time.Now().Add(-pendingTTL))
			if err != nil {
				log.Error().Err(err).Msg("fail stale pending bookings")
				continue
			}
			if len(stale) > 0 {
				log.Info().Int("count", len(stale)).Msg("failed stale pending bookings")
			}
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			return
		}
	}
}
