// Package service contains the business logic for the itinerary API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/repo"
)

// invalidator drops every derived result of a trip. cache.Store satisfies it.
type invalidator interface {
	InvalidateTrip(ctx context.Context, tripID uuid.UUID) error
}

// invalidate drops a trip's cached analyses after a write. A failure is only
// logged: the write itself already succeeded.
func invalidate(ctx context.Context, c invalidator, tripID uuid.UUID) {
	if c == nil {
		return
	}
	if err := c.InvalidateTrip(ctx, tripID); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "trip_id", tripID, "error", err)
	}
}

// TripService implements business logic for Trip operations.
type TripService struct {
	repo  repo.TripRepo
	cache invalidator
}

// NewTripService constructs a TripService. cache may be nil.
func NewTripService(r repo.TripRepo, cache invalidator) *TripService {
	return &TripService{repo: r, cache: cache}
}

// Create validates and persists a new trip.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip.Title = strings.TrimSpace(trip.Title)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	result, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// List returns one page of trips, most recent start date first.
func (s *TripService) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Trip], error) {
	trips, total, err := s.repo.List(ctx, page)
	if err != nil {
		return domain.Page[domain.Trip]{}, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return domain.Page[domain.Trip]{Items: trips, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// Update validates and updates an existing trip. The trip's cached analyses
// are dropped because its day range may have changed.
func (s *TripService) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip.Title = strings.TrimSpace(trip.Title)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	result, err := s.repo.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	invalidate(ctx, s.cache, trip.ID)
	return result, nil
}

// Delete removes a trip with its segments, reservations, jobs and cache.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// validateTrip enforces the write-time rules. The analysis core tolerates an
// inverted range, but the API never stores one.
func validateTrip(trip domain.Trip) error {
	if trip.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if trip.StartDate.IsZero() || trip.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if trip.EndDate.Before(trip.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	return nil
}
