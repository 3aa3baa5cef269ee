package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/repo"
)

// SnapshotService reads a trip with its segments and reservations as one
// domain.Snapshot, the input of both the timeline and the budget analysis.
type SnapshotService struct {
	trips        repo.TripRepo
	segments     repo.SegmentRepo
	reservations repo.ReservationRepo
}

// NewSnapshotService constructs a SnapshotService backed by the provided repos.
func NewSnapshotService(trips repo.TripRepo, segments repo.SegmentRepo, reservations repo.ReservationRepo) *SnapshotService {
	return &SnapshotService{trips: trips, segments: segments, reservations: reservations}
}

// Load returns the trip's snapshot: segments in order, each carrying its
// reservations in order. Returns domain.ErrNotFound for an unknown trip.
func (s *SnapshotService) Load(ctx context.Context, tripID uuid.UUID) (domain.Snapshot, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("service.SnapshotService.Load: %w", err)
	}
	segs, err := s.segments.ListByTripID(ctx, tripID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("service.SnapshotService.Load: %w", err)
	}
	res, err := s.reservations.ListByTripID(ctx, tripID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("service.SnapshotService.Load: %w", err)
	}

	index := make(map[uuid.UUID]int, len(segs))
	for i := range segs {
		segs[i].Reservations = []domain.Reservation{}
		index[segs[i].ID] = i
	}
	for _, r := range res {
		if i, ok := index[r.SegmentID]; ok {
			segs[i].Reservations = append(segs[i].Reservations, r)
		}
	}
	if segs == nil {
		segs = []domain.Segment{}
	}
	return domain.Snapshot{Trip: trip, Segments: segs}, nil
}
