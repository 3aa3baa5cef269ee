package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// ReservationRepo defines the persistence operations for Reservations.
type ReservationRepo interface {
	// Create appends a reservation to its segment's list.
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)

	// ListByTripID returns every reservation of a trip, ordered by segment
	// position and then by position within the segment.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Reservation, error)

	// Delete removes a reservation scoped to its segment.
	Delete(ctx context.Context, segmentID, reservationID uuid.UUID) error
}

type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `r.id, r.segment_id, r.type, r.title, r.category_name, r.date, r.time, r.end_time,
	r.price, r.currency_code, r.nights, r.duration_days, r.check_in_date, r.check_out_date,
	r.status, r.created_at, r.updated_at`

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO reservations (segment_id, position, type, title, category_name, date, time, end_time,
			                          price, currency_code, nights, duration_days,
			                          check_in_date, check_out_date, status)
			VALUES (
				@segment_id,
				(SELECT COALESCE(MAX(position), 0) + 1 FROM reservations WHERE segment_id = @segment_id),
				@type, @title, @category_name, @date, @time, @end_time,
				@price, @currency_code, @nights, @duration_days,
				@check_in_date, @check_out_date, @status)
			RETURNING *
		)
		SELECT ` + reservationColumns + ` FROM inserted r`

	args := pgx.NamedArgs{
		"segment_id":     res.SegmentID,
		"type":           string(res.Type),
		"title":          res.Title,
		"category_name":  res.CategoryName,
		"date":           pgDate(res.Date),
		"time":           res.Time,
		"end_time":       res.EndTime,
		"price":          res.Price,
		"currency_code":  res.Currency(),
		"nights":         res.Nights,
		"duration_days":  res.DurationDays,
		"check_in_date":  pgDatePtr(res.CheckInDate),
		"check_out_date": pgDatePtr(res.CheckOutDate),
		"status":         res.Status,
	}

	result, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations r
		JOIN segments s ON s.id = r.segment_id
		WHERE s.trip_id = @trip_id
		ORDER BY s.position, s.created_at, r.position, r.created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ReservationRepo.ListByTripID: scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByTripID: rows: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) Delete(ctx context.Context, segmentID, reservationID uuid.UUID) error {
	const q = `DELETE FROM reservations WHERE id = @id AND segment_id = @segment_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": reservationID, "segment_id": segmentID})
	if err != nil {
		return fmt.Errorf("repo.ReservationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ReservationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res       domain.Reservation
		id        pgtype.UUID
		segmentID pgtype.UUID
		typ       string
		date      pgtype.Date
		checkIn   pgtype.Date
		checkOut  pgtype.Date
	)
	err := s.Scan(&id, &segmentID, &typ, &res.Title, &res.CategoryName, &date, &res.Time, &res.EndTime,
		&res.Price, &res.CurrencyCode, &res.Nights, &res.DurationDays, &checkIn, &checkOut,
		&res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return domain.Reservation{}, notFound(err)
	}
	res.ID = uuid.UUID(id.Bytes)
	res.SegmentID = uuid.UUID(segmentID.Bytes)
	res.Type = domain.ReservationType(typ)
	res.Date = civilDate(date)
	res.CheckInDate = civilDatePtr(checkIn)
	res.CheckOutDate = civilDatePtr(checkOut)
	return res, nil
}
