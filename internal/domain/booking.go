package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusFailed    BookingStatus = "FAILED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// legalTransitions is the full booking lifecycle. A PENDING booking resolves
// to exactly one of CONFIRMED or FAILED; only CONFIRMED bookings can be
// cancelled.
var legalTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusFailed},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Passenger is a value type embedded in a booking; it has no lifecycle of
// its own.
type Passenger struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Phone     string `json:"phone"`
	IDNumber  string `json:"idnumber"`
	Country   string `json:"country"`
}

// PaymentCard is the payment descriptor supplied with a booking request.
// Only its masked form is ever stored or logged.
type PaymentCard struct {
	NameOnCard string `json:"nameOnCard"`
	CardNumber string `json:"cardNumber"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	CVV        string `json:"cvv"`
}

// Masked returns a storage-safe rendition of the card: holder name plus the
// last four digits.
func (c PaymentCard) Masked() string {
	digits := c.CardNumber
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return c.NameOnCard + " ****" + digits
}

type Booking struct {
	ID          int64
	Ref         string
	FlightID    int64
	ClientEmail string
	Passengers  []Passenger
	PaymentRef  string
	Status      BookingStatus
	SeatCount   int
	AmountCents int64
	// FailReason is the reason code for FAILED bookings.
	FailReason string
	// NeedsReconciliation marks bookings where the payment and seat outcomes
	// disagree (payment approved after the hold expired). These require a
	// compensating refund or re-offer, never automatic resolution.
	NeedsReconciliation bool
	CreatedAt           time.Time
	ResolvedAt          *time.Time
	CancelledAt         *time.Time
}
