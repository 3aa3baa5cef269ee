package handler

// export.go implements GET /trips/{tripID}/export.
// Returns the trip's itinerary as a flat table, one row per reservation.
// Supports ?format=csv (CSV) or the default (JSON).

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_title", "segment_order", "segment_title", "segment_start", "segment_end",
	"destination", "reservation_id", "type", "title", "date", "time", "price", "currency_code", "status",
}

// ExportRow is the JSON form of one export line.
// Fields that are empty for a segment without reservations are omitted.
type ExportRow struct {
	TripID        string   `json:"trip_id"`
	TripTitle     string   `json:"trip_title"`
	SegmentOrder  int      `json:"segment_order"`
	SegmentTitle  string   `json:"segment_title"`
	SegmentStart  string   `json:"segment_start"`
	SegmentEnd    string   `json:"segment_end"`
	Destination   string   `json:"destination,omitempty"`
	ReservationID string   `json:"reservation_id,omitempty"`
	Type          string   `json:"type,omitempty"`
	Title         string   `json:"title,omitempty"`
	Date          string   `json:"date,omitempty"`
	Time          string   `json:"time,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	CurrencyCode  string   `json:"currency_code,omitempty"`
	Status        string   `json:"status,omitempty"`
}

// getExport handles GET /trips/{tripID}/export.
func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		s.writeError(w, r, "trip", badRequest("format must be csv or json"))
		return
	}

	rows, err := s.svc.Export.Export(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}

	if format == "csv" {
		writeCSV(w, tripID.String(), rows)
		return
	}
	out := make([]ExportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes rows as CSV with a header line.
func writeCSV(w http.ResponseWriter, name string, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, row := range rows {
		//nolint:errcheck
		cw.Write(rowToCSVRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "itinerary-"+name+".csv"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	buf.WriteTo(w)
}

func rowToResponse(r domain.ExportRow) ExportRow {
	out := ExportRow{
		TripID:        r.TripID,
		TripTitle:     r.TripTitle,
		SegmentOrder:  r.SegmentOrder,
		SegmentTitle:  r.SegmentTitle,
		SegmentStart:  r.SegmentStart,
		SegmentEnd:    r.SegmentEnd,
		Destination:   r.Destination,
		ReservationID: r.ReservationID,
		Type:          r.Type,
		Title:         r.Title,
		Date:          r.Date,
		Time:          r.Time,
		CurrencyCode:  r.CurrencyCode,
		Status:        r.Status,
	}
	if r.ReservationID != "" {
		price := r.Price
		out.Price = &price
	}
	return out
}

// rowToCSVRecord encodes a row as a flat string slice. The price column is
// empty for a segment without reservations.
func rowToCSVRecord(r domain.ExportRow) []string {
	price := ""
	if r.ReservationID != "" {
		price = strconv.FormatFloat(r.Price, 'f', 2, 64)
	}
	return []string{
		r.TripID,
		r.TripTitle,
		strconv.Itoa(r.SegmentOrder),
		r.SegmentTitle,
		r.SegmentStart,
		r.SegmentEnd,
		r.Destination,
		r.ReservationID,
		r.Type,
		r.Title,
		r.Date,
		r.Time,
		price,
		r.CurrencyCode,
		r.Status,
	}
}
