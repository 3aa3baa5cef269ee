// Package domain contains the core data types for the itinerary service.
// Apart from uuid and the civil date type it has no dependencies and is
// imported by every other internal package (repo, service, handler, timeline, budget).
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/civil"
)

// Trip is the top-level aggregate: a titled, inclusive range of calendar dates.
// Segments belong to a trip.
type Trip struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	StartDate civil.Date `json:"start_date"`
	EndDate   civil.Date `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DayCount returns the number of calendar days in the trip, counting both
// ends. An inverted range is a zero-day trip.
func (t Trip) DayCount() int {
	n := t.EndDate.DaysSince(t.StartDate) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Snapshot is an immutable, already-joined view of one trip: its segments in
// order, each carrying its reservations in order. Both the timeline expander
// and the budget analyzer consume it and never modify it.
type Snapshot struct {
	Trip     Trip      `json:"trip"`
	Segments []Segment `json:"segments"`
}

// Reservations returns every reservation of the snapshot in segment order,
// then reservation order.
func (s Snapshot) Reservations() []Reservation {
	var out []Reservation
	for _, seg := range s.Segments {
		out = append(out, seg.Reservations...)
	}
	return out
}
