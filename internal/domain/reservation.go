package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/civil"
)

// ReservationType is the kind of bookable item.
type ReservationType string

const (
	ReservationFlight     ReservationType = "flight"
	ReservationHotel      ReservationType = "hotel"
	ReservationRestaurant ReservationType = "restaurant"
	ReservationTransport  ReservationType = "transport"
	ReservationActivity   ReservationType = "activity"
)

// Valid reports whether t is one of the known reservation types.
func (t ReservationType) Valid() bool {
	switch t {
	case ReservationFlight, ReservationHotel, ReservationRestaurant, ReservationTransport, ReservationActivity:
		return true
	}
	return false
}

// DefaultCurrency is assumed when a reservation carries no currency code.
const DefaultCurrency = "USD"

// StatusPending is the status a reservation starts in.
const StatusPending = "pending"

// RentalDayInclusiveOffset is added to the date span of a multi-day transport
// booking to get its day count: a car picked up on the 10th and returned on the
// 12th is a three-day rental. Business policy pending product confirmation.
const RentalDayInclusiveOffset = 1

// MaxSpanDays bounds how many nights or days one reservation may cover, and
// the distance between its check-in and check-out dates.
const MaxSpanDays = 365

// Reservation is a bookable item attached to a segment.
// Nights applies to hotels, DurationDays to transport; zero means unset.
type Reservation struct {
	ID           uuid.UUID       `json:"id"`
	SegmentID    uuid.UUID       `json:"segment_id"`
	Type         ReservationType `json:"type"`
	Title        string          `json:"title"`
	CategoryName string          `json:"category_name"`
	Date         civil.Date      `json:"date"`
	Time         string          `json:"time"`
	EndTime      string          `json:"end_time,omitempty"`
	Price        float64         `json:"price"`
	CurrencyCode string          `json:"currency_code"`
	Nights       int             `json:"nights,omitempty"`
	DurationDays int             `json:"duration_days,omitempty"`
	CheckInDate  *civil.Date     `json:"check_in_date,omitempty"`
	CheckOutDate *civil.Date     `json:"check_out_date,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PrimaryDate is the date a reservation starts: the check-in date when known,
// otherwise its display date.
func (r Reservation) PrimaryDate() civil.Date {
	if r.CheckInDate != nil {
		return *r.CheckInDate
	}
	return r.Date
}

// Currency returns the reservation's currency code, defaulting to USD.
func (r Reservation) Currency() string {
	if r.CurrencyCode == "" {
		return DefaultCurrency
	}
	return r.CurrencyCode
}

// IsPending reports whether the reservation still needs action.
func (r Reservation) IsPending() bool {
	return r.Status == "" || r.Status == StatusPending
}

// DeriveSpan fills Nights or DurationDays from a start and end date when the
// caller did not supply them. Hotels get one night per date crossed; transport
// gets the inclusive day count. Other types and non-positive spans are left alone.
func DeriveSpan(r Reservation, start, end civil.Date) Reservation {
	span := end.DaysSince(start)
	if span <= 0 {
		return r
	}
	switch r.Type {
	case ReservationHotel:
		if r.Nights == 0 {
			r.Nights = span
		}
		if r.CheckInDate == nil {
			in := start
			r.CheckInDate = &in
		}
		if r.CheckOutDate == nil {
			out := end
			r.CheckOutDate = &out
		}
	case ReservationTransport:
		if r.DurationDays == 0 {
			r.DurationDays = span + RentalDayInclusiveOffset
		}
	}
	return r
}
