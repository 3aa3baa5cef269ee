package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/itinerary-core/backend/internal/civil"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// TripRequest is the body of POST /trips and PUT /trips/{tripID}.
type TripRequest struct {
	Title     string             `json:"title" validate:"required,max=200"`
	StartDate openapi_types.Date `json:"start_date" validate:"required"`
	EndDate   openapi_types.Date `json:"end_date" validate:"required"`
}

// Trip is the API representation of a trip.
type Trip struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	StartDate openapi_types.Date `json:"start_date"`
	EndDate   openapi_types.Date `json:"end_date"`
	DayCount  int                `json:"day_count"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// createTrip handles POST /trips.
func (s *Server) createTrip(w http.ResponseWriter, r *http.Request) {
	var body TripRequest
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	created, err := s.svc.Trips.Create(r.Context(), requestToTrip(uuid.Nil, body))
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// listTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}

	result, err := s.svc.Trips.List(r.Context(), domain.NewPageRequest(page, limit))
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	data := make([]Trip, len(result.Items))
	for i, t := range result.Items {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data:       data,
		Pagination: Pagination{Page: result.Page, Limit: result.Limit, Total: result.Total},
	})
}

// getTrip handles GET /trips/{tripID}.
func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	trip, err := s.svc.Trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// updateTrip handles PUT /trips/{tripID}.
func (s *Server) updateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	var body TripRequest
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	updated, err := s.svc.Trips.Update(r.Context(), requestToTrip(id, body))
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// deleteTrip handles DELETE /trips/{tripID}.
func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	if err := s.svc.Trips.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

func requestToTrip(id uuid.UUID, body TripRequest) domain.Trip {
	return domain.Trip{
		ID:        id,
		Title:     body.Title,
		StartDate: fromAPIDate(body.StartDate),
		EndDate:   fromAPIDate(body.EndDate),
	}
}

func tripToResponse(t domain.Trip) Trip {
	return Trip{
		ID:        t.ID,
		Title:     t.Title,
		StartDate: toAPIDate(t.StartDate),
		EndDate:   toAPIDate(t.EndDate),
		DayCount:  t.DayCount(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func fromAPIDate(d openapi_types.Date) civil.Date {
	if d.IsZero() {
		return civil.Date{}
	}
	return civil.Of(d.Time)
}

func fromAPIDatePtr(d *openapi_types.Date) *civil.Date {
	if d == nil {
		return nil
	}
	c := fromAPIDate(*d)
	return &c
}

func toAPIDate(d civil.Date) openapi_types.Date {
	if d.IsZero() {
		return openapi_types.Date{}
	}
	return openapi_types.Date{Time: d.Time()}
}

func toAPIDatePtr(d *civil.Date) *openapi_types.Date {
	if d == nil {
		return nil
	}
	v := toAPIDate(*d)
	return &v
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return n, nil
}
