package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aircast/flightbooking/internal/domain"
)

// MemoryStore keeps flights in process memory with a lock per flight.
// Flights are independent, so reservations on one flight never wait on
// another. Used when no database is configured, and by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	flights map[int64]*flightState
}

type flightState struct {
	mu     sync.Mutex
	flight domain.Flight
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, flights: make(map[int64]*flightState)}
}

func (s *MemoryStore) CreateFlight(_ context.Context, spec domain.FlightSpec) (int64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	now := time.Now()
	s.flights[id] = &flightState{flight: domain.Flight{
		ID:            id,
		Code:          spec.Code,
		Origin:        spec.Origin,
		Destination:   spec.Destination,
		DepartureTime: spec.DepartureTime,
		ArrivalTime:   spec.ArrivalTime,
		CostCents:     spec.CostCents,
		TotalSeats:    spec.TotalSeats,
		FullTrip:      spec.FullTrip,
		CreatedAt:     now,
		UpdatedAt:     now,
	}}
	return id, nil
}

func (s *MemoryStore) GetFlight(_ context.Context, id int64) (*domain.Flight, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	f := st.flight
	return &f, nil
}

func (s *MemoryStore) ListAvailable(_ context.Context) ([]domain.Flight, error) {
	s.mu.RLock()
	states := make([]*flightState, 0, len(s.flights))
	for _, st := range s.flights {
		states = append(states, st)
	}
	s.mu.RUnlock()

	flights := make([]domain.Flight, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		if st.flight.SeatsAvailable() > 0 {
			flights = append(flights, st.flight)
		}
		st.mu.Unlock()
	}
	sort.Slice(flights, func(i, j int) bool {
		return flights[i].DepartureTime.Before(flights[j].DepartureTime)
	})
	return flights, nil
}

func (s *MemoryStore) UpdateFlight(_ context.Context, id int64, update domain.FlightUpdate) (*domain.Flight, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	f := st.flight
	if update.DepartureTime != nil {
		f.DepartureTime = *update.DepartureTime
	}
	if update.ArrivalTime != nil {
		f.ArrivalTime = *update.ArrivalTime
	}
	if update.CostCents != nil {
		f.CostCents = *update.CostCents
	}
	if update.TotalSeats != nil {
		if *update.TotalSeats <= 0 {
			return nil, domain.NewValidationError("total seats must be positive")
		}
		if *update.TotalSeats < f.SeatsHeld+f.SeatsCommitted {
			return nil, domain.NewValidationError("total seats below held and committed count")
		}
		f.TotalSeats = *update.TotalSeats
	}
	if !f.DepartureTime.Before(f.ArrivalTime) {
		return nil, domain.NewValidationError("departure must be before arrival")
	}
	f.UpdatedAt = time.Now()
	st.flight = f
	copied := f
	return &copied, nil
}

func (s *MemoryStore) TryReserve(_ context.Context, flightID int64, seats int) error {
	st, err := s.state(flightID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.flight.SeatsHeld+st.flight.SeatsCommitted+seats > st.flight.TotalSeats {
		return domain.ErrInsufficientSeats
	}
	st.flight.SeatsHeld += seats
	st.flight.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CommitReservation(_ context.Context, flightID int64, seats int) error {
	st, err := s.state(flightID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.flight.SeatsHeld < seats {
		return domain.ErrInvariantViolation
	}
	st.flight.SeatsHeld -= seats
	st.flight.SeatsCommitted += seats
	st.flight.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ReleaseReservation(_ context.Context, flightID int64, seats int) error {
	st, err := s.state(flightID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.flight.SeatsHeld < seats {
		return domain.ErrInvariantViolation
	}
	st.flight.SeatsHeld -= seats
	st.flight.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ReclaimSeats(_ context.Context, flightID int64, seats int) error {
	st, err := s.state(flightID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.flight.SeatsCommitted < seats {
		return domain.ErrInvariantViolation
	}
	st.flight.SeatsCommitted -= seats
	st.flight.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) state(id int64) (*flightState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	return st, nil
}

var _ Store = (*MemoryStore)(nil)
