package domain

// ExportRow is one line of a flat itinerary export: one row per reservation,
// with its trip and segment fields repeated. A segment without reservations
// yields one row with empty reservation fields.
type ExportRow struct {
	TripID        string
	TripTitle     string
	SegmentOrder  int
	SegmentTitle  string
	SegmentStart  string // "2006-01-02"
	SegmentEnd    string
	Destination   string
	ReservationID string // empty for a segment without reservations
	Type          string
	Title         string
	Date          string
	Time          string
	Price         float64
	CurrencyCode  string
	Status        string
}

// ExportRows flattens a snapshot into export rows in itinerary order.
func ExportRows(snap Snapshot) []ExportRow {
	rows := []ExportRow{}
	for _, seg := range snap.Segments {
		base := ExportRow{
			TripID:       snap.Trip.ID.String(),
			TripTitle:    snap.Trip.Title,
			SegmentOrder: seg.Order,
			SegmentTitle: seg.Title,
			SegmentStart: seg.StartDate.String(),
			SegmentEnd:   seg.EndDate.String(),
			Destination:  seg.Destination(),
		}
		if len(seg.Reservations) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, r := range seg.Reservations {
			row := base
			row.ReservationID = r.ID.String()
			row.Type = string(r.Type)
			row.Title = r.Title
			row.Date = r.PrimaryDate().String()
			row.Time = r.Time
			row.Price = r.Price
			row.CurrencyCode = r.Currency()
			row.Status = r.Status
			rows = append(rows, row)
		}
	}
	return rows
}
