// Package handler implements the HTTP handlers for the itinerary API.
// All handlers are methods on Server. They are split into domain-specific
// files (health.go, trip.go, analysis.go, etc.) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/budget"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/job"
	"github.com/pkordes/itinerary-core/backend/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Trip], error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SegmentServicer defines the segment operations.
type SegmentServicer interface {
	Create(ctx context.Context, seg domain.Segment) (domain.Segment, error)
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)
	Delete(ctx context.Context, tripID, segmentID uuid.UUID) error
}

// ReservationServicer defines the reservation operations.
type ReservationServicer interface {
	Create(ctx context.Context, tripID uuid.UUID, res domain.Reservation) (domain.Reservation, error)
	Delete(ctx context.Context, tripID, segmentID, reservationID uuid.UUID) error
}

// AnalysisServicer runs the timeline and budget analyses.
type AnalysisServicer interface {
	Timeline(ctx context.Context, tripID uuid.UUID) (service.TimelineView, error)
	Budget(ctx context.Context, tripID uuid.UUID, prefs budget.Preferences) (budget.Result, error)
	Invalidate(ctx context.Context, tripID uuid.UUID) error
}

// JobServicer drives per-trip generation jobs.
type JobServicer interface {
	Open(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error)
	Start(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error)
	Complete(ctx context.Context, tripID uuid.UUID, feature string, result json.RawMessage) (job.Record, error)
	Fail(ctx context.Context, tripID uuid.UUID, feature, reason string) (job.Record, error)
	Reset(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error)
	Resume(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error)
}

// ExportServicer flattens a trip for export.
type ExportServicer interface {
	Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error)
}

// Services bundles the Server's dependencies. A nil field leaves its routes
// unregistered, which keeps single-feature handler tests small.
type Services struct {
	Trips        TripServicer
	Segments     SegmentServicer
	Reservations ReservationServicer
	Analysis     AnalysisServicer
	Jobs         JobServicer
	Export       ExportServicer
}

// Options tunes the Server.
type Options struct {
	// WaitTimeout bounds GET .../jobs/{feature}/wait. Defaults to 8s, below
	// the HTTP server's write timeout.
	WaitTimeout time.Duration
	// OpenAPI is served verbatim at GET /openapi.yaml when non-empty.
	OpenAPI []byte
	Logger  *slog.Logger
}

// Server holds the handler dependencies.
type Server struct {
	svc      Services
	opts     Options
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, opts Options) *Server {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 8 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, opts: opts, validate: newValidator(), logger: logger}
}

// Routes returns the API router. Cross-cutting middleware (request IDs,
// logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.getHealth)
	if len(s.opts.OpenAPI) > 0 {
		r.Get("/openapi.yaml", s.getOpenAPI)
	}

	r.Route("/trips", func(r chi.Router) {
		if s.svc.Trips != nil {
			r.Post("/", s.createTrip)
			r.Get("/", s.listTrips)
		}
		r.Route("/{tripID}", func(r chi.Router) {
			if s.svc.Trips != nil {
				r.Get("/", s.getTrip)
				r.Put("/", s.updateTrip)
				r.Delete("/", s.deleteTrip)
			}
			if s.svc.Segments != nil {
				r.Post("/segments", s.createSegment)
				r.Get("/segments", s.listSegments)
				r.Delete("/segments/{segmentID}", s.deleteSegment)
			}
			if s.svc.Reservations != nil {
				r.Post("/segments/{segmentID}/reservations", s.createReservation)
				r.Delete("/segments/{segmentID}/reservations/{reservationID}", s.deleteReservation)
			}
			if s.svc.Analysis != nil {
				r.Get("/timeline", s.getTimeline)
				r.Get("/budget", s.getBudget)
				r.Delete("/cache", s.deleteCache)
			}
			if s.svc.Export != nil {
				r.Get("/export", s.getExport)
			}
			if s.svc.Jobs != nil {
				r.Route("/jobs/{feature}", func(r chi.Router) {
					r.Get("/", s.openJob)
					r.Post("/", s.startJob)
					r.Post("/complete", s.completeJob)
					r.Post("/fail", s.failJob)
					r.Post("/reset", s.resetJob)
					r.Get("/wait", s.waitJob)
				})
			}
		})
	})
	return r
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
