package flights

import (
	"context"

	"github.com/aircast/flightbooking/internal/domain"
	"github.com/aircast/flightbooking/internal/inventory"
)

type FlightUseCase interface {
	Create(ctx context.Context, spec domain.FlightSpec) (*domain.Flight, error)
	ListAvailable(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Update(ctx context.Context, id int64, update domain.FlightUpdate) (*domain.Flight, error)
}

// Cache is the flight-list cache. Nil cache disables caching.
type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type FlightService struct {
	store inventory.Store
	cache Cache
}

func NewFlightService(store inventory.Store, cache Cache) *FlightService {
	return &FlightService{store: store, cache: cache}
}

func (s *FlightService) Create(ctx context.Context, spec domain.FlightSpec) (*domain.Flight, error) {
	id, err := s.store.CreateFlight(ctx, spec)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
	return s.store.GetFlight(ctx, id)
}

func (s *FlightService) ListAvailable(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.store.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.store.GetFlight(ctx, id)
}

func (s *FlightService) Update(ctx context.Context, id int64, update domain.FlightUpdate) (*domain.Flight, error) {
	flight, err := s.store.UpdateFlight(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
	return flight, nil
}

var _ FlightUseCase = (*FlightService)(nil)
