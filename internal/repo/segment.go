package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// SegmentRepo defines the persistence operations for Segments.
// All single-row operations are scoped by tripID to enforce ownership.
type SegmentRepo interface {
	// Create inserts a segment. An Order of zero appends it after the trip's
	// last segment.
	Create(ctx context.Context, seg domain.Segment) (domain.Segment, error)

	// GetByID returns domain.ErrNotFound if the segment does not exist under tripID.
	GetByID(ctx context.Context, tripID, segmentID uuid.UUID) (domain.Segment, error)

	// ListByTripID returns a trip's segments by position, without reservations.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)

	// Delete removes a segment and its reservations.
	Delete(ctx context.Context, tripID, segmentID uuid.UUID) error
}

type pgSegmentRepo struct {
	db db
}

// NewSegmentRepo constructs a SegmentRepo backed by the provided db connection.
func NewSegmentRepo(db db) SegmentRepo {
	return &pgSegmentRepo{db: db}
}

const segmentColumns = `id, trip_id, position, title, start_date, end_date,
	start_location, end_location, segment_type, created_at, updated_at`

func (r *pgSegmentRepo) Create(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	const q = `
		INSERT INTO segments (trip_id, position, title, start_date, end_date,
		                      start_location, end_location, segment_type)
		VALUES (
			@trip_id,
			CASE WHEN @position::int > 0 THEN @position::int
			     ELSE (SELECT COALESCE(MAX(position), 0) + 1 FROM segments WHERE trip_id = @trip_id)
			END,
			@title, @start_date, @end_date, @start_location, @end_location, @segment_type)
		RETURNING ` + segmentColumns

	args := pgx.NamedArgs{
		"trip_id":        seg.TripID,
		"position":       seg.Order,
		"title":          seg.Title,
		"start_date":     pgDate(seg.StartDate),
		"end_date":       pgDate(seg.EndDate),
		"start_location": seg.StartLocation,
		"end_location":   seg.EndLocation,
		"segment_type":   seg.SegmentType,
	}

	result, err := scanSegment(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) GetByID(ctx context.Context, tripID, segmentID uuid.UUID) (domain.Segment, error) {
	const q = `SELECT ` + segmentColumns + ` FROM segments WHERE id = @id AND trip_id = @trip_id`

	result, err := scanSegment(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": segmentID, "trip_id": tripID}))
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	const q = `
		SELECT ` + segmentColumns + `
		FROM segments
		WHERE trip_id = @trip_id
		ORDER BY position, created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	segs := []domain.Segment{}
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.SegmentRepo.ListByTripID: scan: %w", err)
		}
		segs = append(segs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.ListByTripID: rows: %w", err)
	}
	return segs, nil
}

func (r *pgSegmentRepo) Delete(ctx context.Context, tripID, segmentID uuid.UUID) error {
	const q = `DELETE FROM segments WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": segmentID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.SegmentRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SegmentRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanSegment(s scanner) (domain.Segment, error) {
	var (
		seg    domain.Segment
		id     pgtype.UUID
		tripID pgtype.UUID
		start  pgtype.Date
		end    pgtype.Date
	)
	err := s.Scan(&id, &tripID, &seg.Order, &seg.Title, &start, &end,
		&seg.StartLocation, &seg.EndLocation, &seg.SegmentType, &seg.CreatedAt, &seg.UpdatedAt)
	if err != nil {
		return domain.Segment{}, notFound(err)
	}
	seg.ID = uuid.UUID(id.Bytes)
	seg.TripID = uuid.UUID(tripID.Bytes)
	seg.StartDate = civilDate(start)
	seg.EndDate = civilDate(end)
	return seg, nil
}
