package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aircast/flightbooking/internal/domain"
	"github.com/aircast/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type createFlightRequest struct {
	Code        string    `json:"code"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	CostCents   int64     `json:"cost_cents"`
	Seats       int       `json:"seats"`
	FullTrip    bool      `json:"full_trip"`
}

type updateFlightRequest struct {
	Departure *time.Time `json:"departure"`
	Arrival   *time.Time `json:"arrival"`
	CostCents *int64     `json:"cost_cents"`
	Seats     *int       `json:"seats"`
}

type flightResponse struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	Departure      string `json:"departure"`
	Arrival        string `json:"arrival"`
	CostCents      int64  `json:"cost_cents"`
	TotalSeats     int    `json:"total_seats"`
	SeatsAvailable int    `json:"seats_available"`
	FullTrip       bool   `json:"full_trip"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("/flight", h.create)
	router.GET("/available-flights", h.listAvailable)
	router.GET("/flight/:id", h.get)
	router.PUT("/update-flight/:id", h.update)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req createFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": domain.ReasonValidation})
		return
	}

	flight, err := h.service.Create(c.Request.Context(), domain.FlightSpec{
		Code:          req.Code,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.Departure,
		ArrivalTime:   req.Arrival,
		CostCents:     req.CostCents,
		TotalSeats:    req.Seats,
		FullTrip:      req.FullTrip,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFlightResponse(flight))
}

func (h *FlightHandler) listAvailable(c *gin.Context) {
	list, err := h.service.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]flightResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toFlightResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "reason": domain.ReasonValidation})
		return
	}

	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(flight))
}

func (h *FlightHandler) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "reason": domain.ReasonValidation})
		return
	}

	var req updateFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": domain.ReasonValidation})
		return
	}

	flight, err := h.service.Update(c.Request.Context(), id, domain.FlightUpdate{
		DepartureTime: req.Departure,
		ArrivalTime:   req.Arrival,
		CostCents:     req.CostCents,
		TotalSeats:    req.Seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(flight))
}

func toFlightResponse(f *domain.Flight) flightResponse {
	return flightResponse{
		ID:             f.ID,
		Code:           f.Code,
		Origin:         f.Origin,
		Destination:    f.Destination,
		Departure:      f.DepartureTime.Format(time.RFC3339),
		Arrival:        f.ArrivalTime.Format(time.RFC3339),
		CostCents:      f.CostCents,
		TotalSeats:     f.TotalSeats,
		SeatsAvailable: f.SeatsAvailable(),
		FullTrip:       f.FullTrip,
	}
}
