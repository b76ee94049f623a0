package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aircast/flightbooking/internal/domain"
	"github.com/aircast/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookFlightRequest struct {
	Flight     int64              `json:"flight"`
	Passengers []domain.Passenger `json:"passengers"`
	Payment    domain.PaymentCard `json:"payment"`
	Email      string             `json:"email"`
}

type bookingResponse struct {
	Ref            string `json:"ref"`
	FlightID       int64  `json:"flight_id"`
	Status         string `json:"status"`
	SeatCount      int    `json:"seat_count"`
	AmountCents    int64  `json:"amount_cents"`
	Reason         string `json:"reason,omitempty"`
	Reconciliation bool   `json:"reconciliation,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/book-flight", h.book)
	router.DELETE("/cancel-flight/:id", h.cancel)
	router.GET("/bookings", h.list)
}

func (h *BookingHandler) book(c *gin.Context) {
	var req bookFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": domain.ReasonValidation})
		return
	}

	result, err := h.service.BookFlight(c.Request.Context(), booking.BookFlightInput{
		FlightID:    req.Flight,
		ClientEmail: req.Email,
		Passengers:  req.Passengers,
		Payment:     req.Payment,
	})
	if err != nil {
		// A FAILED booking still has a reference the client can quote.
		if result != nil {
			body := gin.H{"error": err.Error(), "reason": domain.ReasonCode(err), "booking": toBookingResponse(result)}
			c.JSON(statusFor(err), body)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(result))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	ref := c.Param("id")
	result, err := h.service.CancelBooking(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(result))
}

func (h *BookingHandler) list(c *gin.Context) {
	client := c.Query("client")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	bookings, err := h.service.ListClientBookings(c.Request.Context(), client, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Ref:            b.Ref,
		FlightID:       b.FlightID,
		Status:         string(b.Status),
		SeatCount:      b.SeatCount,
		AmountCents:    b.AmountCents,
		Reason:         b.FailReason,
		Reconciliation: b.NeedsReconciliation,
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
}
