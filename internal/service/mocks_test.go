package service_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/cache"
	"github.com/pkordes/itinerary-core/backend/internal/civil"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/job"
	"github.com/pkordes/itinerary-core/backend/internal/repo"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	create  func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list    func(ctx context.Context, page domain.PageRequest) ([]domain.Trip, int, error)
	update  func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Trip, int, error) {
	return m.list(ctx, page)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockSegmentRepo struct {
	create       func(ctx context.Context, seg domain.Segment) (domain.Segment, error)
	getByID      func(ctx context.Context, tripID, segmentID uuid.UUID) (domain.Segment, error)
	listByTripID func(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)
	delete       func(ctx context.Context, tripID, segmentID uuid.UUID) error
}

func (m *mockSegmentRepo) Create(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	return m.create(ctx, seg)
}
func (m *mockSegmentRepo) GetByID(ctx context.Context, tripID, segmentID uuid.UUID) (domain.Segment, error) {
	return m.getByID(ctx, tripID, segmentID)
}
func (m *mockSegmentRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	return m.listByTripID(ctx, tripID)
}
func (m *mockSegmentRepo) Delete(ctx context.Context, tripID, segmentID uuid.UUID) error {
	return m.delete(ctx, tripID, segmentID)
}

var _ repo.SegmentRepo = (*mockSegmentRepo)(nil)

type mockReservationRepo struct {
	create       func(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	listByTripID func(ctx context.Context, tripID uuid.UUID) ([]domain.Reservation, error)
	delete       func(ctx context.Context, segmentID, reservationID uuid.UUID) error
}

func (m *mockReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	return m.create(ctx, res)
}
func (m *mockReservationRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Reservation, error) {
	return m.listByTripID(ctx, tripID)
}
func (m *mockReservationRepo) Delete(ctx context.Context, segmentID, reservationID uuid.UUID) error {
	return m.delete(ctx, segmentID, reservationID)
}

var _ repo.ReservationRepo = (*mockReservationRepo)(nil)

// spyCache is a cache.Memory that records which trips were invalidated.
type spyCache struct {
	*cache.Memory

	mu          sync.Mutex
	invalidated []uuid.UUID
}

func newSpyCache() *spyCache {
	return &spyCache{Memory: cache.NewMemory()}
}

func (c *spyCache) InvalidateTrip(ctx context.Context, tripID uuid.UUID) error {
	c.mu.Lock()
	c.invalidated = append(c.invalidated, tripID)
	c.mu.Unlock()
	return c.Memory.InvalidateTrip(ctx, tripID)
}

func (c *spyCache) invalidations() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uuid.UUID(nil), c.invalidated...)
}

var _ cache.Store = (*spyCache)(nil)

// memJobs is an in-memory job.RecordStore.
type memJobs struct {
	mu      sync.Mutex
	records map[cache.Key]job.Record
}

func newMemJobs() *memJobs {
	return &memJobs{records: make(map[cache.Key]job.Record)}
}

func (m *memJobs) Get(_ context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[cache.Key{TripID: tripID, Feature: feature}]
	if !ok {
		return job.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

func (m *memJobs) Save(_ context.Context, rec job.Record) (job.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[cache.Key{TripID: rec.TripID, Feature: rec.Feature}] = rec
	return rec, nil
}

var _ job.RecordStore = (*memJobs)(nil)

// ---- fixtures ----------------------------------------------------------------

func d(s string) civil.Date { return civil.MustParse(s) }

func dp(s string) *civil.Date {
	v := civil.MustParse(s)
	return &v
}

func validTrip() domain.Trip {
	return domain.Trip{
		ID:        uuid.New(),
		Title:     "Japan Spring",
		StartDate: d("2025-04-01"),
		EndDate:   d("2025-04-10"),
	}
}

// echoTripRepo echoes writes back and finds exactly the given trip.
func echoTripRepo(trip domain.Trip) *mockTripRepo {
	return &mockTripRepo{
		create: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
		update: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
		getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			if id != trip.ID {
				return domain.Trip{}, domain.ErrNotFound
			}
			return trip, nil
		},
	}
}

func rawJSON(s string) json.RawMessage { return json.RawMessage(s) }
