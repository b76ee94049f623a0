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
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) Create(ctx context.Context, spec domain.FlightSpec) (*domain.Flight, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) ListAvailable(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Update(ctx context.Context, id int64, update domain.FlightUpdate) (*domain.Flight, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func newFlightRouter(service *MockFlightUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewFlightHandler(service).Register(router.Group("/api"))
	return router
}

func sampleFlight() *domain.Flight {
	return &domain.Flight{
		ID:            1,
		Code:          "AC501",
		Origin:        "AMS",
		Destination:   "LIS",
		DepartureTime: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		CostCents:     15000,
		TotalSeats:    100,
	}
}

func TestFlightHandler_Create(t *testing.T) {
	service := new(MockFlightUseCase)
	service.On("Create", mock.Anything, mock.Anything).Return(sampleFlight(), nil)
	router := newFlightRouter(service)

	body, _ := json.Marshal(map[string]interface{}{
		"code":        "AC501",
		"origin":      "AMS",
		"destination": "LIS",
		"departure":   "2026-05-01T09:00:00Z",
		"arrival":     "2026-05-01T12:00:00Z",
		"cost_cents":  15000,
		"seats":       100,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/flight", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp flightResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AC501", resp.Code)
	assert.Equal(t, 100, resp.SeatsAvailable)
	service.AssertExpectations(t)
}

func TestFlightHandler_Create_ValidationError(t *testing.T) {
	service := new(MockFlightUseCase)
	service.On("Create", mock.Anything, mock.Anything).
		Return(nil, domain.NewValidationError("total seats must be positive"))
	router := newFlightRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/flight", bytes.NewReader([]byte(`{"seats":0}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ReasonValidation)
}

func TestFlightHandler_Create_MalformedBody(t *testing.T) {
	router := newFlightRouter(new(MockFlightUseCase))

	req := httptest.NewRequest(http.MethodPost, "/api/flight", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightHandler_ListAvailable(t *testing.T) {
	service := new(MockFlightUseCase)
	service.On("ListAvailable", mock.Anything).Return([]domain.Flight{*sampleFlight()}, nil)
	router := newFlightRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/available-flights", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []flightResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	service.AssertExpectations(t)
}

func TestFlightHandler_Get_NotFound(t *testing.T) {
	service := new(MockFlightUseCase)
	service.On("GetByID", mock.Anything, int64(7)).Return(nil, domain.ErrFlightNotFound)
	router := newFlightRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/flight/7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), domain.ReasonNotFound)
}

func TestFlightHandler_Get_InvalidID(t *testing.T) {
	router := newFlightRouter(new(MockFlightUseCase))

	req := httptest.NewRequest(http.MethodGet, "/api/flight/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightHandler_Update(t *testing.T) {
	updated := sampleFlight()
	updated.CostCents = 17500

	service := new(MockFlightUseCase)
	service.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(u domain.FlightUpdate) bool {
		return u.CostCents != nil && *u.CostCents == 17500
	})).Return(updated, nil)
	router := newFlightRouter(service)

	req := httptest.NewRequest(http.MethodPut, "/api/update-flight/1", bytes.NewReader([]byte(`{"cost_cents":17500}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp flightResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(17500), resp.CostCents)
	service.AssertExpectations(t)
}
