package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/job"
)

// CompleteJobRequest is the body of POST .../jobs/{feature}/complete.
type CompleteJobRequest struct {
	Result json.RawMessage `json:"result" validate:"required"`
}

// FailJobRequest is the body of POST .../jobs/{feature}/fail.
type FailJobRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type jobOp func(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error)

// openJob handles GET /trips/{tripID}/jobs/{feature}.
func (s *Server) openJob(w http.ResponseWriter, r *http.Request) {
	s.runJob(w, r, http.StatusOK, s.svc.Jobs.Open)
}

// startJob handles POST /trips/{tripID}/jobs/{feature}.
func (s *Server) startJob(w http.ResponseWriter, r *http.Request) {
	s.runJob(w, r, http.StatusAccepted, s.svc.Jobs.Start)
}

// resetJob handles POST /trips/{tripID}/jobs/{feature}/reset.
func (s *Server) resetJob(w http.ResponseWriter, r *http.Request) {
	s.runJob(w, r, http.StatusOK, s.svc.Jobs.Reset)
}

// completeJob handles POST /trips/{tripID}/jobs/{feature}/complete.
func (s *Server) completeJob(w http.ResponseWriter, r *http.Request) {
	var body CompleteJobRequest
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	s.runJob(w, r, http.StatusOK, func(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
		return s.svc.Jobs.Complete(ctx, tripID, feature, body.Result)
	})
}

// failJob handles POST /trips/{tripID}/jobs/{feature}/fail.
func (s *Server) failJob(w http.ResponseWriter, r *http.Request) {
	var body FailJobRequest
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	s.runJob(w, r, http.StatusOK, func(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
		return s.svc.Jobs.Fail(ctx, tripID, feature, body.Reason)
	})
}

// waitJob handles GET /trips/{tripID}/jobs/{feature}/wait. It polls until the
// job settles or the wait timeout passes; in the latter case it answers 202
// with the job still generating, and the client calls again to keep waiting.
func (s *Server) waitJob(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.WaitTimeout)
	defer cancel()

	rec, err := s.svc.Jobs.Resume(ctx, tripID, chi.URLParam(r, "feature"))
	if errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil {
		writeJSON(w, http.StatusAccepted, rec)
		return
	}
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) runJob(w http.ResponseWriter, r *http.Request, status int, op jobOp) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	rec, err := op(r.Context(), tripID, chi.URLParam(r, "feature"))
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, status, rec)
}
