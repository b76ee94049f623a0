package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aircast/flightbooking/api"
	"github.com/aircast/flightbooking/config"
	"github.com/aircast/flightbooking/internal/allocator"
	"github.com/aircast/flightbooking/internal/service/booking"
	"github.com/aircast/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run starts the HTTP server and the allocator's expiry sweep, and blocks
// until ctx is cancelled or the server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	flightSvc flights.FlightUseCase,
	bookingSvc booking.BookingUseCase,
	seats *allocator.Allocator,
	log zerolog.Logger,
) error {
	router := newRouter(cfg, flightSvc, bookingSvc)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	go seats.Run(ctx, time.Duration(cfg.Worker.SweepIntervalSeconds)*time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	log.Info().Str("address", cfg.HTTP.Address).Msg("http server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	group := router.Group("/api")
	api.NewFlightHandler(flightSvc).Register(group)
	api.NewBookingHandler(bookingSvc).Register(group)

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.json"),
		)))
	}

	return router
}
