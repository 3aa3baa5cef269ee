package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// ReservationRequest is the body of POST .../segments/{segmentID}/reservations.
// Either date or check_in_date must be present.
type ReservationRequest struct {
	Type         string              `json:"type" validate:"required,oneof=flight hotel restaurant transport activity"`
	Title        string              `json:"title" validate:"required,max=200"`
	CategoryName string              `json:"category_name" validate:"max=100"`
	Date         *openapi_types.Date `json:"date"`
	Time         string              `json:"time" validate:"max=20"`
	EndTime      string              `json:"end_time" validate:"max=20"`
	Price        float64             `json:"price" validate:"min=0"`
	CurrencyCode string              `json:"currency_code" validate:"omitempty,len=3"`
	Nights       int                 `json:"nights" validate:"min=0,max=365"`
	DurationDays int                 `json:"duration_days" validate:"min=0,max=365"`
	CheckInDate  *openapi_types.Date `json:"check_in_date"`
	CheckOutDate *openapi_types.Date `json:"check_out_date"`
	Status       string              `json:"status" validate:"max=50"`
}

// Reservation is the API representation of a reservation.
type Reservation struct {
	ID           uuid.UUID           `json:"id"`
	SegmentID    uuid.UUID           `json:"segment_id"`
	Type         string              `json:"type"`
	Title        string              `json:"title"`
	CategoryName string              `json:"category_name,omitempty"`
	Date         openapi_types.Date  `json:"date"`
	Time         string              `json:"time,omitempty"`
	EndTime      string              `json:"end_time,omitempty"`
	Price        float64             `json:"price"`
	CurrencyCode string              `json:"currency_code"`
	Nights       int                 `json:"nights,omitempty"`
	DurationDays int                 `json:"duration_days,omitempty"`
	CheckInDate  *openapi_types.Date `json:"check_in_date,omitempty"`
	CheckOutDate *openapi_types.Date `json:"check_out_date,omitempty"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// createReservation handles POST /trips/{tripID}/segments/{segmentID}/reservations.
func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "reservation", err)
		return
	}
	segID, err := pathUUID(r, "segmentID")
	if err != nil {
		s.writeError(w, r, "reservation", err)
		return
	}
	var body ReservationRequest
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, r, "reservation", err)
		return
	}

	res := domain.Reservation{
		SegmentID:    segID,
		Type:         domain.ReservationType(body.Type),
		Title:        body.Title,
		CategoryName: body.CategoryName,
		Time:         body.Time,
		EndTime:      body.EndTime,
		Price:        body.Price,
		CurrencyCode: body.CurrencyCode,
		Nights:       body.Nights,
		DurationDays: body.DurationDays,
		CheckInDate:  fromAPIDatePtr(body.CheckInDate),
		CheckOutDate: fromAPIDatePtr(body.CheckOutDate),
		Status:       body.Status,
	}
	if body.Date != nil {
		res.Date = fromAPIDate(*body.Date)
	}

	// The only lookup Create can miss is the parent segment.
	created, err := s.svc.Reservations.Create(r.Context(), tripID, res)
	if err != nil {
		s.writeError(w, r, "segment", err)
		return
	}
	writeJSON(w, http.StatusCreated, reservationToResponse(created))
}

// deleteReservation handles DELETE /trips/{tripID}/segments/{segmentID}/reservations/{reservationID}.
func (s *Server) deleteReservation(w http.ResponseWriter, r *http.Request) {
	ids := make([]uuid.UUID, 0, 3)
	for _, name := range []string{"tripID", "segmentID", "reservationID"} {
		id, err := pathUUID(r, name)
		if err != nil {
			s.writeError(w, r, "reservation", err)
			return
		}
		ids = append(ids, id)
	}
	if err := s.svc.Reservations.Delete(r.Context(), ids[0], ids[1], ids[2]); err != nil {
		s.writeError(w, r, "reservation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func reservationToResponse(res domain.Reservation) Reservation {
	return Reservation{
		ID:           res.ID,
		SegmentID:    res.SegmentID,
		Type:         string(res.Type),
		Title:        res.Title,
		CategoryName: res.CategoryName,
		Date:         toAPIDate(res.Date),
		Time:         res.Time,
		EndTime:      res.EndTime,
		Price:        res.Price,
		CurrencyCode: res.CurrencyCode,
		Nights:       res.Nights,
		DurationDays: res.DurationDays,
		CheckInDate:  toAPIDatePtr(res.CheckInDate),
		CheckOutDate: toAPIDatePtr(res.CheckOutDate),
		Status:       res.Status,
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
	}
}
