package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aircast/flightbooking/config"
	"github.com/aircast/flightbooking/internal/allocator"
	"github.com/aircast/flightbooking/internal/bootstrap"
	"github.com/aircast/flightbooking/internal/cache"
	"github.com/aircast/flightbooking/internal/clock"
	"github.com/aircast/flightbooking/internal/inventory"
	"github.com/aircast/flightbooking/internal/kafka"
	"github.com/aircast/flightbooking/internal/ledger"
	"github.com/aircast/flightbooking/internal/logger"
	"github.com/aircast/flightbooking/internal/payment"
	"github.com/aircast/flightbooking/internal/repository"
	"github.com/aircast/flightbooking/internal/service/booking"
	"github.com/aircast/flightbooking/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		invStore    inventory.Store
		ledgerStore ledger.Store
	)
	if cfg.Database.Enabled() {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		defer pool.Close()
		invStore = repository.NewPGInventory(pool)
		ledgerStore = repository.NewPGLedger(pool)
	} else {
		log.Warn().Msg("no database configured, using in-memory stores")
		invStore = inventory.NewMemoryStore()
		ledgerStore = ledger.NewMemoryStore()
	}

	var flightCache flights.Cache
	if cfg.Redis.Enabled() {
		flightCache = cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTLSeconds)*time.Second)
	}

	var producer booking.Producer
	if cfg.Kafka.Enabled() {
		p := kafka.NewProducer(cfg.Kafka.Brokers)
		defer p.Close()
		producer = p
	}

	clk := clock.Real{}
	seats := allocator.New(invStore, clk, time.Duration(cfg.Booking.HoldTTLSeconds)*time.Second, log)
	bookingLedger := ledger.New(ledgerStore, clk)
	gateway := payment.NewStubGateway(100*time.Millisecond, log)

	flightService := flights.NewFlightService(invStore, flightCache)
	bookingService := booking.NewBookingService(
		bookingLedger,
		invStore,
		seats,
		gateway,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.PaymentTimeoutSeconds)*time.Second,
		log,
		booking.WithReconciliationTopic(cfg.Kafka.ReconciliationTopic),
	)

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService, seats, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
