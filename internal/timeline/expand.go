package timeline

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/civil"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// Day is one calendar date of a trip or segment with the moments shown on it.
// SegmentID is the owning segment; on trip days it is uuid.Nil when no
// segment covers the date.
type Day struct {
	Date      civil.Date `json:"date"`
	Weekday   string     `json:"weekday"`
	SegmentID uuid.UUID  `json:"segment_id"`
	Moments   []Moment   `json:"moments"`
}

// Schedule is the expanded calendar of one trip.
//
// Overflow holds, per segment, the moments whose date falls outside that
// segment's range and that could not be moved onto its first day: the
// continuation nights of a hotel running past the segment's end, or any
// moment of a segment whose range is empty. They still appear in TripDays
// when the trip covers their date.
type Schedule struct {
	TripDays    []Day                  `json:"trip_days"`
	SegmentDays map[uuid.UUID][]Day    `json:"segment_days"`
	Overflow    map[uuid.UUID][]Moment `json:"overflow,omitempty"`
	Segments    []SegmentSummary       `json:"segments"`
}

// Expand builds the per-day schedule of a trip. It never fails: a segment
// without reservations gets a full run of empty days, a trip without segments
// gets an empty schedule, and an inverted date range is a zero-day range.
func Expand(trip domain.Trip, segments []domain.Segment) Schedule {
	sched := Schedule{
		TripDays:    []Day{},
		SegmentDays: make(map[uuid.UUID][]Day, len(segments)),
		Overflow:    make(map[uuid.UUID][]Moment),
		Segments:    []SegmentSummary{},
	}
	if len(segments) == 0 {
		return sched
	}

	ordered := sortedSegments(segments)

	tripDays := newDays(trip.StartDate, trip.EndDate, uuid.Nil)
	for i := range tripDays {
		if seg, ok := owner(ordered, tripDays[i].Date); ok {
			tripDays[i].SegmentID = seg.ID
		}
	}

	for _, seg := range ordered {
		days := newDays(seg.StartDate, seg.EndDate, seg.ID)

		for _, res := range seg.Reservations {
			for _, m := range Occurrences(res) {
				m.SegmentID = seg.ID
				if m.Role == RolePrimary && !seg.Covers(m.Date) && len(days) > 0 {
					trueDate := m.Date
					m.TrueDate = &trueDate
					m.DisplayedOnDifferentDay = true
					m.Date = seg.StartDate
				}

				if i := m.Date.DaysSince(seg.StartDate); seg.Covers(m.Date) && i < len(days) {
					days[i].Moments = append(days[i].Moments, m)
				} else {
					sched.Overflow[seg.ID] = append(sched.Overflow[seg.ID], m)
				}

				if i := m.Date.DaysSince(trip.StartDate); i >= 0 && i < len(tripDays) {
					tripDays[i].Moments = append(tripDays[i].Moments, m)
				}
			}
		}

		sched.SegmentDays[seg.ID] = days
		sched.Segments = append(sched.Segments, summarize(seg, len(days)))
	}

	sched.TripDays = tripDays
	return sched
}

// sortedSegments returns a copy of segments ordered by Order, keeping the
// given order for ties.
func sortedSegments(segments []domain.Segment) []domain.Segment {
	out := make([]domain.Segment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// owner returns the first segment, in order, whose range covers d.
func owner(ordered []domain.Segment, d civil.Date) (domain.Segment, bool) {
	for _, seg := range ordered {
		if seg.Covers(d) {
			return seg, true
		}
	}
	return domain.Segment{}, false
}

func newDays(start, end civil.Date, segmentID uuid.UUID) []Day {
	dates := civil.Range(start, end)
	days := make([]Day, len(dates))
	for i, d := range dates {
		days[i] = Day{
			Date:      d,
			Weekday:   d.Weekday().String(),
			SegmentID: segmentID,
			Moments:   []Moment{},
		}
	}
	return days
}
