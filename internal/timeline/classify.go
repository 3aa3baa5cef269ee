package timeline

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// categoryKeywords is checked in order; the first category with a matching
// keyword wins.
var categoryKeywords = []struct {
	category domain.SegmentCategory
	keywords []string
}{
	{domain.SegmentTravel, []string{"travel", "flight"}},
	{domain.SegmentStay, []string{"stay", "hotel"}},
	{domain.SegmentActivity, []string{"activity", "explore"}},
}

// categoryColors is the fixed palette used to color segments by category.
var categoryColors = map[domain.SegmentCategory]string{
	domain.SegmentTravel:   "#0284c7",
	domain.SegmentStay:     "#7e22ce",
	domain.SegmentActivity: "#15803d",
	domain.SegmentOther:    "#475569",
}

// Classify maps a free-text segment type name onto a SegmentCategory by
// case-insensitive keyword match.
func Classify(segmentType string) domain.SegmentCategory {
	name := strings.ToLower(segmentType)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(name, kw) {
				return c.category
			}
		}
	}
	return domain.SegmentOther
}

// Color returns the display color of a segment category.
func Color(c domain.SegmentCategory) string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return categoryColors[domain.SegmentOther]
}

// SegmentSummary is the per-segment header data shown above a run of days.
type SegmentSummary struct {
	SegmentID        uuid.UUID              `json:"segment_id"`
	Title            string                 `json:"title"`
	Destination      string                 `json:"destination"`
	Category         domain.SegmentCategory `json:"category"`
	Color            string                 `json:"color"`
	DayCount         int                    `json:"day_count"`
	ReservationCount int                    `json:"reservation_count"`
	PendingCount     int                    `json:"pending_count"`
}

func summarize(seg domain.Segment, dayCount int) SegmentSummary {
	cat := Classify(seg.SegmentType)
	sum := SegmentSummary{
		SegmentID:        seg.ID,
		Title:            seg.Title,
		Destination:      seg.Destination(),
		Category:         cat,
		Color:            Color(cat),
		DayCount:         dayCount,
		ReservationCount: len(seg.Reservations),
	}
	for _, r := range seg.Reservations {
		if r.IsPending() {
			sum.PendingCount++
		}
	}
	return sum
}

// PendingCount returns how many reservations across the snapshot still need action.
func PendingCount(snap domain.Snapshot) int {
	n := 0
	for _, r := range snap.Reservations() {
		if r.IsPending() {
			n++
		}
	}
	return n
}
