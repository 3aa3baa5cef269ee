package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/itinerary-core/backend/internal/cache"
)

// pgCacheRepo is the Postgres cache.Store, shared by every API instance.
type pgCacheRepo struct {
	db db
}

// NewCacheRepo constructs a cache.Store backed by the analysis_cache table.
func NewCacheRepo(db db) cache.Store {
	return &pgCacheRepo{db: db}
}

func (r *pgCacheRepo) Get(ctx context.Context, key cache.Key) ([]byte, bool, error) {
	const q = `SELECT value FROM analysis_cache WHERE trip_id = @trip_id AND feature = @feature`

	var value []byte
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": key.TripID, "feature": key.Feature}).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("repo.CacheRepo.Get: %w", err)
	}
	return value, true, nil
}

func (r *pgCacheRepo) Set(ctx context.Context, key cache.Key, value []byte) error {
	const q = `
		INSERT INTO analysis_cache (trip_id, feature, value)
		VALUES (@trip_id, @feature, @value)
		ON CONFLICT (trip_id, feature) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": key.TripID, "feature": key.Feature, "value": value})
	if err != nil {
		return fmt.Errorf("repo.CacheRepo.Set: %w", err)
	}
	return nil
}

func (r *pgCacheRepo) Invalidate(ctx context.Context, key cache.Key) error {
	const q = `DELETE FROM analysis_cache WHERE trip_id = @trip_id AND feature = @feature`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": key.TripID, "feature": key.Feature}); err != nil {
		return fmt.Errorf("repo.CacheRepo.Invalidate: %w", err)
	}
	return nil
}

func (r *pgCacheRepo) InvalidateTrip(ctx context.Context, tripID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM analysis_cache WHERE trip_id = @trip_id`, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return fmt.Errorf("repo.CacheRepo.InvalidateTrip: %w", err)
	}
	return nil
}
