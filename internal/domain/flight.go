package domain

import "time"

type Flight struct {
	ID             int64
	Code           string
	Origin         string
	Destination    string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	CostCents      int64
	TotalSeats     int
	SeatsHeld      int
	SeatsCommitted int
	FullTrip       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SeatsAvailable reports how many seats are neither held nor committed.
func (f *Flight) SeatsAvailable() int {
	return f.TotalSeats - f.SeatsHeld - f.SeatsCommitted
}

// FlightSpec carries the fields an admin supplies when creating a flight.
type FlightSpec struct {
	Code          string
	Origin        string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	CostCents     int64
	TotalSeats    int
	FullTrip      bool
}

func (s FlightSpec) Validate() error {
	if s.TotalSeats <= 0 {
		return NewValidationError("total seats must be positive")
	}
	if s.CostCents < 0 {
		return NewValidationError("cost must not be negative")
	}
	if !s.DepartureTime.Before(s.ArrivalTime) {
		return NewValidationError("departure must be before arrival")
	}
	return nil
}

// FlightUpdate holds the mutable fields of a flight. Nil means leave unchanged.
type FlightUpdate struct {
	DepartureTime *time.Time
	ArrivalTime   *time.Time
	CostCents     *int64
	TotalSeats    *int
}
