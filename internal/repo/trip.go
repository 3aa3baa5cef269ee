// Package repo contains all database access logic for the itinerary API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the Postgres implementation.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// List returns one page of trips ordered by start_date descending, and the
	// total number of trips.
	List(ctx context.Context, page domain.PageRequest) ([]domain.Trip, int, error)

	// Update overwrites the mutable fields of an existing trip and returns the
	// updated record. Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip and, by cascade, everything under it.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, title, start_date, end_date, created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (title, start_date, end_date)
		VALUES (@title, @start_date, @end_date)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"title":      trip.Title,
		"start_date": pgDate(trip.StartDate),
		"end_date":   pgDate(trip.EndDate),
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// List returns the requested page; the window count gives the total in the
// same round trip.
func (r *pgTripRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Trip, int, error) {
	const q = `
		SELECT ` + tripColumns + `, count(*) OVER () AS total
		FROM trips
		ORDER BY start_date DESC, created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": page.Limit, "offset": page.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	total := 0
	for rows.Next() {
		var (
			id        pgtype.UUID
			t         domain.Trip
			start     pgtype.Date
			end       pgtype.Date
			rowsTotal int
		)
		if err := rows.Scan(&id, &t.Title, &start, &end, &t.CreatedAt, &t.UpdatedAt, &rowsTotal); err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.List: scan: %w", err)
		}
		t.ID = uuid.UUID(id.Bytes)
		t.StartDate = civilDate(start)
		t.EndDate = civilDate(end)
		trips = append(trips, t)
		total = rowsTotal
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: rows: %w", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(trips) == 0 && page.Offset() > 0 {
		if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.List: count: %w", err)
		}
	}
	return trips, total, nil
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET title      = @title,
		    start_date = @start_date,
		    end_date   = @end_date,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":         trip.ID,
		"title":      trip.Title,
		"start_date": pgDate(trip.StartDate),
		"end_date":   pgDate(trip.EndDate),
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// notFound maps pgx.ErrNoRows onto domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t     domain.Trip
		id    pgtype.UUID
		start pgtype.Date
		end   pgtype.Date
	)
	if err := s.Scan(&id, &t.Title, &start, &end, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Trip{}, notFound(err)
	}
	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = civilDate(start)
	t.EndDate = civilDate(end)
	return t, nil
}
