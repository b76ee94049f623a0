package api

import (
	"net/http"

	"github.com/aircast/flightbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch domain.ReasonCode(err) {
	case domain.ReasonValidation:
		return http.StatusBadRequest
	case domain.ReasonNotFound:
		return http.StatusNotFound
	case domain.ReasonInsufficientSeats, domain.ReasonHoldExpired, domain.ReasonNotCancellable:
		return http.StatusConflict
	case domain.ReasonPaymentDeclined:
		return http.StatusPaymentRequired
	case domain.ReasonPaymentTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a typed error as {error, reason}. Internal defects
// surface as a plain 500 without detail.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"reason": domain.ReasonCode(err)}
	if status != http.StatusInternalServerError {
		body["error"] = err.Error()
	} else {
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}
