package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aircast/flightbooking/internal/domain"
	"github.com/aircast/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) BookFlight(ctx context.Context, input booking.BookFlightInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListClientBookings(ctx context.Context, clientEmail string, limit, offset int) ([]domain.Booking, error) {
	args := m.Called(ctx, clientEmail, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func newBookingRouter(service *MockBookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewBookingHandler(service).Register(router.Group("/api"))
	return router
}

func sampleBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		Ref:         "2c6a6c2e-30cf-4f5b-9fb5-0b7a6a1c9d11",
		FlightID:    1,
		ClientEmail: "ada@example.com",
		Status:      status,
		SeatCount:   2,
		AmountCents: 30000,
		CreatedAt:   time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func bookRequestBody() []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"flight": 1,
		"email":  "ada@example.com",
		"passengers": []map[string]string{
			{"firstname": "Ada", "lastname": "Stam", "country": "NL"},
			{"firstname": "Max", "lastname": "Stam", "country": "NL"},
		},
		"payment": map[string]interface{}{
			"nameOnCard": "A STAM",
			"cardNumber": "4111111111111111",
			"month":      6,
			"year":       2028,
			"cvv":        "123",
		},
	})
	return body
}

func TestBookingHandler_Book_Confirmed(t *testing.T) {
	service := new(MockBookingUseCase)
	service.On("BookFlight", mock.Anything, mock.MatchedBy(func(in booking.BookFlightInput) bool {
		return in.FlightID == 1 && in.ClientEmail == "ada@example.com" && len(in.Passengers) == 2
	})).Return(sampleBooking(domain.BookingStatusConfirmed), nil)
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/book-flight", bytes.NewReader(bookRequestBody()))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.BookingStatusConfirmed), resp.Status)
	assert.Equal(t, 2, resp.SeatCount)
	service.AssertExpectations(t)
}

// A failed booking keeps its reference in the error body so the client can
// quote it to support.
func TestBookingHandler_Book_FailedIncludesBooking(t *testing.T) {
	failed := sampleBooking(domain.BookingStatusFailed)
	failed.FailReason = domain.ReasonPaymentDeclined

	service := new(MockBookingUseCase)
	service.On("BookFlight", mock.Anything, mock.Anything).Return(failed, domain.ErrPaymentDeclined)
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/book-flight", bytes.NewReader(bookRequestBody()))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var resp struct {
		Reason  string          `json:"reason"`
		Booking bookingResponse `json:"booking"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ReasonPaymentDeclined, resp.Reason)
	assert.Equal(t, failed.Ref, resp.Booking.Ref)
}

func TestBookingHandler_Book_StatusMapping(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "insufficient seats", err: domain.ErrInsufficientSeats, status: http.StatusConflict},
		{name: "hold expired", err: domain.ErrHoldExpired, status: http.StatusConflict},
		{name: "payment timeout", err: domain.ErrPaymentTimeout, status: http.StatusGatewayTimeout},
		{name: "flight not found", err: domain.ErrFlightNotFound, status: http.StatusNotFound},
		{name: "internal", err: domain.ErrInvariantViolation, status: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := new(MockBookingUseCase)
			service.On("BookFlight", mock.Anything, mock.Anything).Return(nil, tc.err)
			router := newBookingRouter(service)

			req := httptest.NewRequest(http.MethodPost, "/api/book-flight", bytes.NewReader(bookRequestBody()))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestBookingHandler_Book_InternalHidesDetail(t *testing.T) {
	service := new(MockBookingUseCase)
	service.On("BookFlight", mock.Anything, mock.Anything).Return(nil, domain.ErrInvariantViolation)
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/book-flight", bytes.NewReader(bookRequestBody()))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
	assert.NotContains(t, w.Body.String(), "invariant")
}

func TestBookingHandler_Cancel(t *testing.T) {
	cancelled := sampleBooking(domain.BookingStatusCancelled)

	service := new(MockBookingUseCase)
	service.On("CancelBooking", mock.Anything, cancelled.Ref).Return(cancelled, nil)
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/cancel-flight/"+cancelled.Ref, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.BookingStatusCancelled), resp.Status)
	service.AssertExpectations(t)
}

func TestBookingHandler_Cancel_NotCancellable(t *testing.T) {
	service := new(MockBookingUseCase)
	service.On("CancelBooking", mock.Anything, "ref-1").Return(nil, domain.ErrBookingNotCancellable)
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/cancel-flight/ref-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), domain.ReasonNotCancellable)
}

func TestBookingHandler_Cancel_NotFound(t *testing.T) {
	service := new(MockBookingUseCase)
	service.On("CancelBooking", mock.Anything, "missing").Return(nil, domain.ErrBookingNotFound)
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/cancel-flight/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_List(t *testing.T) {
	service := new(MockBookingUseCase)
	service.On("ListClientBookings", mock.Anything, "ada@example.com", 10, 5).
		Return([]domain.Booking{*sampleBooking(domain.BookingStatusConfirmed)}, nil)
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings?client=ada@example.com&limit=10&offset=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	service.AssertExpectations(t)
}

func TestBookingHandler_List_NegativePagingClamped(t *testing.T) {
	service := new(MockBookingUseCase)
	service.On("ListClientBookings", mock.Anything, "ada@example.com", 0, 0).
		Return([]domain.Booking{}, nil)
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings?client=ada@example.com&limit=-3&offset=-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestBookingHandler_List_MissingClient(t *testing.T) {
	service := new(MockBookingUseCase)
	service.On("ListClientBookings", mock.Anything, "", 0, 0).
		Return(nil, domain.NewValidationError("client email is required"))
	router := newBookingRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
