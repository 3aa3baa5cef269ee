package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/repo"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// ReservationService implements business logic for Reservation operations.
type ReservationService struct {
	segments     repo.SegmentRepo
	reservations repo.ReservationRepo
	cache        invalidator
}

// NewReservationService constructs a ReservationService. cache may be nil.
func NewReservationService(segments repo.SegmentRepo, reservations repo.ReservationRepo, cache invalidator) *ReservationService {
	return &ReservationService{segments: segments, reservations: reservations, cache: cache}
}

// Create normalizes and validates a reservation, then appends it to its
// segment. Currency defaults to USD and status to pending. When both check-in
// and check-out dates are given, hotel nights and transport day counts are
// derived from them unless set explicitly. A missing date falls back to the
// check-in date.
//
// Dates outside the segment are accepted; the timeline shows such a booking
// on the segment's first day.
func (s *ReservationService) Create(ctx context.Context, tripID uuid.UUID, res domain.Reservation) (domain.Reservation, error) {
	if _, err := s.segments.GetByID(ctx, tripID, res.SegmentID); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}

	res = normalizeReservation(res)
	if err := validateReservation(res); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}

	result, err := s.reservations.Create(ctx, res)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}
	invalidate(ctx, s.cache, tripID)
	return result, nil
}

// Delete removes a reservation from a segment of the trip.
func (s *ReservationService) Delete(ctx context.Context, tripID, segmentID, reservationID uuid.UUID) error {
	if _, err := s.segments.GetByID(ctx, tripID, segmentID); err != nil {
		return fmt.Errorf("service.ReservationService.Delete: %w", err)
	}
	if err := s.reservations.Delete(ctx, segmentID, reservationID); err != nil {
		return fmt.Errorf("service.ReservationService.Delete: %w", err)
	}
	invalidate(ctx, s.cache, tripID)
	return nil
}

func normalizeReservation(res domain.Reservation) domain.Reservation {
	res.Title = strings.TrimSpace(res.Title)
	res.CategoryName = strings.TrimSpace(res.CategoryName)
	res.CurrencyCode = strings.ToUpper(strings.TrimSpace(res.CurrencyCode))
	if res.CurrencyCode == "" {
		res.CurrencyCode = domain.DefaultCurrency
	}
	if res.Status == "" {
		res.Status = domain.StatusPending
	}
	if res.Date.IsZero() && res.CheckInDate != nil {
		res.Date = *res.CheckInDate
	}
	if res.CheckInDate != nil && res.CheckOutDate != nil {
		res = domain.DeriveSpan(res, *res.CheckInDate, *res.CheckOutDate)
	}
	return res
}

func validateReservation(res domain.Reservation) error {
	switch {
	case !res.Type.Valid():
		return fmt.Errorf("%w: type must be one of flight, hotel, restaurant, transport, activity", domain.ErrValidation)
	case res.Title == "":
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	case res.Date.IsZero():
		return fmt.Errorf("%w: date or check_in_date is required", domain.ErrValidation)
	case res.Price < 0 || math.IsNaN(res.Price) || math.IsInf(res.Price, 0):
		return fmt.Errorf("%w: price must be a non-negative number", domain.ErrValidation)
	case !currencyCode.MatchString(res.CurrencyCode):
		return fmt.Errorf("%w: currency_code must be a three-letter ISO code", domain.ErrValidation)
	case res.Nights < 0 || res.DurationDays < 0:
		return fmt.Errorf("%w: nights and duration_days must not be negative", domain.ErrValidation)
	case res.Nights > domain.MaxSpanDays || res.DurationDays > domain.MaxSpanDays:
		return fmt.Errorf("%w: nights and duration_days must be at most %d", domain.ErrValidation, domain.MaxSpanDays)
	case res.CheckInDate != nil && res.CheckOutDate != nil && res.CheckOutDate.Before(*res.CheckInDate):
		return fmt.Errorf("%w: check_out_date must not be before check_in_date", domain.ErrValidation)
	case res.CheckInDate != nil && res.CheckOutDate != nil && res.CheckOutDate.DaysSince(*res.CheckInDate) > domain.MaxSpanDays:
		return fmt.Errorf("%w: check_out_date must be within %d days of check_in_date", domain.ErrValidation, domain.MaxSpanDays)
	}
	return nil
}
