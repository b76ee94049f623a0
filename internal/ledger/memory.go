package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aircast/flightbooking/internal/domain"
)

// MemoryStore is the in-process booking store used without a database and by
// tests.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[string]*domain.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, bookings: make(map[string]*domain.Booking)}
}

func (s *MemoryStore) Insert(_ context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking.ID = s.nextID
	s.nextID++
	copied := *booking
	s.bookings[booking.Ref] = &copied
	return nil
}

func (s *MemoryStore) GetByRef(_ context.Context, ref string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[ref]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, ref string, from, to domain.BookingStatus, reason string, at time.Time) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[ref]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if b.Status != from {
		return nil, ErrStatusConflict
	}

	b.Status = to
	switch to {
	case domain.BookingStatusConfirmed, domain.BookingStatusFailed:
		b.ResolvedAt = &at
	case domain.BookingStatusCancelled:
		b.CancelledAt = &at
	}
	if to == domain.BookingStatusFailed {
		b.FailReason = reason
	}
	copied := *b
	return &copied, nil
}

func (s *MemoryStore) FlagReconciliation(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[ref]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.NeedsReconciliation = true
	return nil
}

func (s *MemoryStore) ListByClient(_ context.Context, clientEmail string, limit, offset int) ([]domain.Booking, error) {
	s.mu.Lock()
	var result []domain.Booking
	for _, b := range s.bookings {
		if b.ClientEmail == clientEmail {
			result = append(result, *b)
		}
	}
	s.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return []domain.Booking{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) ExpirePendingBefore(_ context.Context, deadline time.Time, reason string) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []domain.Booking
	for _, b := range s.bookings {
		if b.Status == domain.BookingStatusPending && b.CreatedAt.Before(deadline) {
			b.Status = domain.BookingStatusFailed
			b.FailReason = reason
			resolved := deadline
			b.ResolvedAt = &resolved
			expired = append(expired, *b)
		}
	}
	return expired, nil
}

var _ Store = (*MemoryStore)(nil)
