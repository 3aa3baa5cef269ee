package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/timeline"
)

// SegmentRequest is the body of POST /trips/{tripID}/segments.
// An omitted order appends the segment after the trip's last one.
type SegmentRequest struct {
	Title         string             `json:"title" validate:"required,max=200"`
	StartDate     openapi_types.Date `json:"start_date" validate:"required"`
	EndDate       openapi_types.Date `json:"end_date" validate:"required"`
	StartLocation string             `json:"start_location" validate:"max=200"`
	EndLocation   string             `json:"end_location" validate:"max=200"`
	SegmentType   string             `json:"segment_type" validate:"max=50"`
	Order         int                `json:"order" validate:"min=0"`
}

// Segment is the API representation of a segment.
type Segment struct {
	ID            uuid.UUID              `json:"id"`
	TripID        uuid.UUID              `json:"trip_id"`
	Order         int                    `json:"order"`
	Title         string                 `json:"title"`
	StartDate     openapi_types.Date     `json:"start_date"`
	EndDate       openapi_types.Date     `json:"end_date"`
	StartLocation string                 `json:"start_location,omitempty"`
	EndLocation   string                 `json:"end_location,omitempty"`
	SegmentType   string                 `json:"segment_type,omitempty"`
	Category      domain.SegmentCategory `json:"category"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// createSegment handles POST /trips/{tripID}/segments.
func (s *Server) createSegment(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	var body SegmentRequest
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	created, err := s.svc.Segments.Create(r.Context(), domain.Segment{
		TripID:        tripID,
		Order:         body.Order,
		Title:         body.Title,
		StartDate:     fromAPIDate(body.StartDate),
		EndDate:       fromAPIDate(body.EndDate),
		StartLocation: body.StartLocation,
		EndLocation:   body.EndLocation,
		SegmentType:   body.SegmentType,
	})
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, segmentToResponse(created))
}

// listSegments handles GET /trips/{tripID}/segments.
func (s *Server) listSegments(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	segs, err := s.svc.Segments.ListByTripID(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	data := make([]Segment, len(segs))
	for i, seg := range segs {
		data[i] = segmentToResponse(seg)
	}
	writeJSON(w, http.StatusOK, data)
}

// deleteSegment handles DELETE /trips/{tripID}/segments/{segmentID}.
func (s *Server) deleteSegment(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "segment", err)
		return
	}
	segID, err := pathUUID(r, "segmentID")
	if err != nil {
		s.writeError(w, r, "segment", err)
		return
	}
	if err := s.svc.Segments.Delete(r.Context(), tripID, segID); err != nil {
		s.writeError(w, r, "segment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func segmentToResponse(seg domain.Segment) Segment {
	return Segment{
		ID:            seg.ID,
		TripID:        seg.TripID,
		Order:         seg.Order,
		Title:         seg.Title,
		StartDate:     toAPIDate(seg.StartDate),
		EndDate:       toAPIDate(seg.EndDate),
		StartLocation: seg.StartLocation,
		EndLocation:   seg.EndLocation,
		SegmentType:   seg.SegmentType,
		Category:      timeline.Classify(seg.SegmentType),
		CreatedAt:     seg.CreatedAt,
		UpdatedAt:     seg.UpdatedAt,
	}
}
