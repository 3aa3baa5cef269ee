package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/civil"
)

// SegmentCategory groups free-text segment types for coloring and grouping.
type SegmentCategory string

const (
	SegmentTravel   SegmentCategory = "travel"
	SegmentStay     SegmentCategory = "stay"
	SegmentActivity SegmentCategory = "activity"
	SegmentOther    SegmentCategory = "other"
)

// Segment is a contiguous leg of a trip: a stay in one place, or travel
// between two places. Its date range is inclusive.
type Segment struct {
	ID            uuid.UUID     `json:"id"`
	TripID        uuid.UUID     `json:"trip_id"`
	Order         int           `json:"order"`
	Title         string        `json:"title"`
	StartDate     civil.Date    `json:"start_date"`
	EndDate       civil.Date    `json:"end_date"`
	StartLocation string        `json:"start_location"`
	EndLocation   string        `json:"end_location"`
	SegmentType   string        `json:"segment_type"`
	Reservations  []Reservation `json:"reservations"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Destination is where the segment leaves the traveller: the end location,
// falling back to the start location and then the title.
func (s Segment) Destination() string {
	switch {
	case s.EndLocation != "":
		return s.EndLocation
	case s.StartLocation != "":
		return s.StartLocation
	default:
		return s.Title
	}
}

// Covers reports whether d falls inside the segment's inclusive date range.
func (s Segment) Covers(d civil.Date) bool {
	return d.Within(s.StartDate, s.EndDate)
}
