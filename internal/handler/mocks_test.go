package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-core/backend/internal/budget"
	"github.com/pkordes/itinerary-core/backend/internal/civil"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/handler"
	"github.com/pkordes/itinerary-core/backend/internal/job"
	"github.com/pkordes/itinerary-core/backend/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	create  func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list    func(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Trip], error)
	update  func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripServicer) Create(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Trip], error) {
	return m.list(ctx, page)
}
func (m *mockTripServicer) Update(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.update(ctx, t)
}
func (m *mockTripServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockSegmentServicer struct {
	create       func(ctx context.Context, seg domain.Segment) (domain.Segment, error)
	listByTripID func(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)
	delete       func(ctx context.Context, tripID, segmentID uuid.UUID) error
}

func (m *mockSegmentServicer) Create(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	return m.create(ctx, seg)
}
func (m *mockSegmentServicer) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	return m.listByTripID(ctx, tripID)
}
func (m *mockSegmentServicer) Delete(ctx context.Context, tripID, segmentID uuid.UUID) error {
	return m.delete(ctx, tripID, segmentID)
}

var _ handler.SegmentServicer = (*mockSegmentServicer)(nil)

type mockReservationServicer struct {
	create func(ctx context.Context, tripID uuid.UUID, res domain.Reservation) (domain.Reservation, error)
	delete func(ctx context.Context, tripID, segmentID, reservationID uuid.UUID) error
}

func (m *mockReservationServicer) Create(ctx context.Context, tripID uuid.UUID, res domain.Reservation) (domain.Reservation, error) {
	return m.create(ctx, tripID, res)
}
func (m *mockReservationServicer) Delete(ctx context.Context, tripID, segmentID, reservationID uuid.UUID) error {
	return m.delete(ctx, tripID, segmentID, reservationID)
}

var _ handler.ReservationServicer = (*mockReservationServicer)(nil)

type mockAnalysisServicer struct {
	timeline   func(ctx context.Context, tripID uuid.UUID) (service.TimelineView, error)
	budget     func(ctx context.Context, tripID uuid.UUID, prefs budget.Preferences) (budget.Result, error)
	invalidate func(ctx context.Context, tripID uuid.UUID) error
}

func (m *mockAnalysisServicer) Timeline(ctx context.Context, tripID uuid.UUID) (service.TimelineView, error) {
	return m.timeline(ctx, tripID)
}
func (m *mockAnalysisServicer) Budget(ctx context.Context, tripID uuid.UUID, prefs budget.Preferences) (budget.Result, error) {
	return m.budget(ctx, tripID, prefs)
}
func (m *mockAnalysisServicer) Invalidate(ctx context.Context, tripID uuid.UUID) error {
	return m.invalidate(ctx, tripID)
}

var _ handler.AnalysisServicer = (*mockAnalysisServicer)(nil)

// mockJobServicer routes every operation through one function so tests can
// assert which operation ran.
type mockJobServicer struct {
	do func(op string, tripID uuid.UUID, feature string, arg any) (job.Record, error)
	// resume, when set, replaces do for Resume so tests can observe ctx.
	resume func(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error)
}

func (m *mockJobServicer) Open(_ context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	return m.do("open", tripID, feature, nil)
}
func (m *mockJobServicer) Start(_ context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	return m.do("start", tripID, feature, nil)
}
func (m *mockJobServicer) Complete(_ context.Context, tripID uuid.UUID, feature string, result json.RawMessage) (job.Record, error) {
	return m.do("complete", tripID, feature, result)
}
func (m *mockJobServicer) Fail(_ context.Context, tripID uuid.UUID, feature, reason string) (job.Record, error) {
	return m.do("fail", tripID, feature, reason)
}
func (m *mockJobServicer) Reset(_ context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	return m.do("reset", tripID, feature, nil)
}
func (m *mockJobServicer) Resume(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	if m.resume != nil {
		return m.resume(ctx, tripID, feature)
	}
	return m.do("resume", tripID, feature, nil)
}

var _ handler.JobServicer = (*mockJobServicer)(nil)

type mockExportServicer struct {
	export func(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error) {
	return m.export(ctx, tripID)
}

var _ handler.ExportServicer = (*mockExportServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into its chi router,
// the same way main.go does in production.
func newHTTPHandler(svc handler.Services) http.Handler {
	return handler.NewServer(svc, handler.Options{WaitTimeout: 50 * time.Millisecond}).Routes()
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func d(s string) civil.Date { return civil.MustParse(s) }

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:        uuid.New(),
		Title:     "Japan Spring",
		StartDate: d("2025-04-01"),
		EndDate:   d("2025-04-10"),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}
