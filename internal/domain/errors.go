package domain

import "errors"

var (
	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInsufficientSeats is a business-rule failure: the flight cannot seat
	// the requested party. Not retryable until inventory changes.
	ErrInsufficientSeats = errors.New("insufficient seats")

	// ErrHoldExpired means a seat hold lapsed before it was confirmed. When it
	// surfaces after an approved payment the booking becomes a reconciliation
	// case.
	ErrHoldExpired = errors.New("seat hold expired")

	ErrPaymentDeclined = errors.New("payment declined")
	ErrPaymentTimeout  = errors.New("payment timed out")

	// ErrBookingNotCancellable reports a cancel request for a booking that is
	// not CONFIRMED. A client-visible business condition, unlike
	// ErrIllegalTransition below.
	ErrBookingNotCancellable = errors.New("only confirmed bookings can be cancelled")

	// ErrIllegalTransition and ErrInvariantViolation guard against caller
	// bugs. They are logged as defects, not rendered to clients.
	ErrIllegalTransition  = errors.New("illegal booking transition")
	ErrInvariantViolation = errors.New("seat accounting invariant violated")
)

// ValidationError reports business input that passed schema validation but
// fails a domain rule.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// Reason codes surfaced to the API layer so it can render a client-appropriate
// message without seeing internal state.
const (
	ReasonValidation        = "VALIDATION_ERROR"
	ReasonNotFound          = "NOT_FOUND"
	ReasonInsufficientSeats = "INSUFFICIENT_SEATS"
	ReasonPaymentDeclined   = "PAYMENT_DECLINED"
	ReasonPaymentTimeout    = "PAYMENT_TIMEOUT"
	ReasonHoldExpired       = "HOLD_EXPIRED"
	ReasonNotCancellable    = "NOT_CANCELLABLE"
	ReasonInternal          = "INTERNAL"
)

// ReasonCode maps an error to its client-facing reason code.
func ReasonCode(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ReasonValidation
	case errors.Is(err, ErrFlightNotFound), errors.Is(err, ErrBookingNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrInsufficientSeats):
		return ReasonInsufficientSeats
	case errors.Is(err, ErrPaymentDeclined):
		return ReasonPaymentDeclined
	case errors.Is(err, ErrPaymentTimeout):
		return ReasonPaymentTimeout
	case errors.Is(err, ErrHoldExpired):
		return ReasonHoldExpired
	case errors.Is(err, ErrBookingNotCancellable):
		return ReasonNotCancellable
	default:
		return ReasonInternal
	}
}
