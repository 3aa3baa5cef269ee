// Package timeline expands a trip's segments and reservations into a
// day-indexed schedule. It is the single place that does date arithmetic for
// presentation: every consumer reads Days and Moments instead of computing
// its own ranges.
package timeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/civil"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// Role tells whether a Moment is the first occurrence of a reservation or a
// later day/night of a multi-day one.
type Role string

const (
	RolePrimary      Role = "primary"
	RoleContinuation Role = "continuation"
)

// Moment is one calendar-day occurrence of a reservation.
//
// Date is the day the moment is shown on. When the reservation's own date lies
// outside its segment, Date is the segment's first day, DisplayedOnDifferentDay
// is set and TrueDate holds the real date.
type Moment struct {
	ReservationID           uuid.UUID   `json:"reservation_id"`
	SegmentID               uuid.UUID   `json:"segment_id"`
	Date                    civil.Date  `json:"date"`
	Role                    Role        `json:"role"`
	OccurrenceIndex         int         `json:"occurrence_index,omitempty"`
	OccurrenceCount         int         `json:"occurrence_count,omitempty"`
	Label                   string      `json:"label,omitempty"`
	DisplayedOnDifferentDay bool        `json:"displayed_on_different_day,omitempty"`
	TrueDate                *civil.Date `json:"true_date,omitempty"`
}

// Occurrences returns every Moment a reservation produces, dated at their
// true calendar dates: one primary, then N-1 continuations for an N-night
// hotel or a D-day transport booking, capped at domain.MaxSpanDays entries.
// The result always has at least one entry.
func Occurrences(r domain.Reservation) []Moment {
	start := r.PrimaryDate()

	count, unit := 1, ""
	switch {
	case r.Type == domain.ReservationHotel && r.Nights > 1:
		count, unit = r.Nights, "Night"
	case r.Type == domain.ReservationTransport && r.DurationDays > 1:
		count, unit = r.DurationDays, "Day"
	}
	count = min(count, domain.MaxSpanDays)

	out := make([]Moment, 0, count)
	out = append(out, Moment{
		ReservationID: r.ID,
		SegmentID:     r.SegmentID,
		Date:          start,
		Role:          RolePrimary,
	})
	if count == 1 {
		return out
	}
	out[0].OccurrenceIndex = 1
	out[0].OccurrenceCount = count
	out[0].Label = fmt.Sprintf("%s 1 of %d", unit, count)

	for k := 1; k < count; k++ {
		out = append(out, Moment{
			ReservationID:   r.ID,
			SegmentID:       r.SegmentID,
			Date:            start.AddDays(k),
			Role:            RoleContinuation,
			OccurrenceIndex: k + 1,
			OccurrenceCount: count,
			Label:           fmt.Sprintf("%s %d of %d", unit, k+1, count),
		})
	}
	return out
}
