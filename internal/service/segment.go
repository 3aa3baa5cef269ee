package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/repo"
)

// SegmentService implements business logic for Segment operations.
// It holds the trips repo because a segment must fit inside its trip.
type SegmentService struct {
	trips    repo.TripRepo
	segments repo.SegmentRepo
	cache    invalidator
}

// NewSegmentService constructs a SegmentService. cache may be nil.
func NewSegmentService(trips repo.TripRepo, segments repo.SegmentRepo, cache invalidator) *SegmentService {
	return &SegmentService{trips: trips, segments: segments, cache: cache}
}

// Create validates the segment against its trip and persists it.
// Returns domain.ErrNotFound if the trip does not exist and
// domain.ErrValidation if the segment is malformed or outside the trip.
func (s *SegmentService) Create(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	trip, err := s.trips.GetByID(ctx, seg.TripID)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("service.SegmentService.Create: %w", err)
	}
	seg.Title = strings.TrimSpace(seg.Title)
	if err := validateSegment(trip, seg); err != nil {
		return domain.Segment{}, fmt.Errorf("service.SegmentService.Create: %w", err)
	}
	result, err := s.segments.Create(ctx, seg)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("service.SegmentService.Create: %w", err)
	}
	invalidate(ctx, s.cache, seg.TripID)
	return result, nil
}

// ListByTripID returns a trip's segments in order. Always non-nil.
func (s *SegmentService) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.SegmentService.ListByTripID: %w", err)
	}
	segs, err := s.segments.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.SegmentService.ListByTripID: %w", err)
	}
	if segs == nil {
		return []domain.Segment{}, nil
	}
	return segs, nil
}

// Delete removes a segment and its reservations.
func (s *SegmentService) Delete(ctx context.Context, tripID, segmentID uuid.UUID) error {
	if err := s.segments.Delete(ctx, tripID, segmentID); err != nil {
		return fmt.Errorf("service.SegmentService.Delete: %w", err)
	}
	invalidate(ctx, s.cache, tripID)
	return nil
}

func validateSegment(trip domain.Trip, seg domain.Segment) error {
	if seg.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if seg.StartDate.IsZero() || seg.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if seg.EndDate.Before(seg.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if !seg.StartDate.Within(trip.StartDate, trip.EndDate) || !seg.EndDate.Within(trip.StartDate, trip.EndDate) {
		return fmt.Errorf("%w: segment must fall within the trip's dates (%s to %s)",
			domain.ErrValidation, trip.StartDate, trip.EndDate)
	}
	if seg.Order < 0 {
		return fmt.Errorf("%w: order must not be negative", domain.ErrValidation)
	}
	return nil
}
