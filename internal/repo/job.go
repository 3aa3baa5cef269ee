package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/itinerary-core/backend/internal/job"
)

// pgJobRepo is the Postgres job.RecordStore: one analysis_jobs row per
// (trip, feature).
type pgJobRepo struct {
	db db
}

// NewJobRepo constructs a job.RecordStore backed by the provided db connection.
func NewJobRepo(db db) job.RecordStore {
	return &pgJobRepo{db: db}
}

const jobColumns = `trip_id, feature, state, started_at, result, reason, polls, updated_at`

func (r *pgJobRepo) Get(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	const q = `SELECT ` + jobColumns + ` FROM analysis_jobs WHERE trip_id = @trip_id AND feature = @feature`

	rec, err := scanJob(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "feature": feature}))
	if err != nil {
		return job.Record{}, fmt.Errorf("repo.JobRepo.Get: %w", err)
	}
	return rec, nil
}

// Save upserts the record.
func (r *pgJobRepo) Save(ctx context.Context, rec job.Record) (job.Record, error) {
	const q = `
		INSERT INTO analysis_jobs (trip_id, feature, state, started_at, result, reason, polls)
		VALUES (@trip_id, @feature, @state, @started_at, @result, @reason, @polls)
		ON CONFLICT (trip_id, feature) DO UPDATE
		SET state      = EXCLUDED.state,
		    started_at = EXCLUDED.started_at,
		    result     = EXCLUDED.result,
		    reason     = EXCLUDED.reason,
		    polls      = EXCLUDED.polls,
		    updated_at = now()
		RETURNING ` + jobColumns

	var result []byte
	if len(rec.Status.Result) > 0 {
		result = rec.Status.Result
	}
	args := pgx.NamedArgs{
		"trip_id":    rec.TripID,
		"feature":    rec.Feature,
		"state":      string(rec.Status.State),
		"started_at": rec.Status.StartedAt,
		"result":     result,
		"reason":     rec.Status.Reason,
		"polls":      rec.Polls,
	}

	saved, err := scanJob(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return job.Record{}, fmt.Errorf("repo.JobRepo.Save: %w", err)
	}
	return saved, nil
}

func scanJob(s scanner) (job.Record, error) {
	var (
		rec       job.Record
		tripID    pgtype.UUID
		state     string
		startedAt *time.Time
		result    []byte
	)
	err := s.Scan(&tripID, &rec.Feature, &state, &startedAt, &result, &rec.Status.Reason, &rec.Polls, &rec.UpdatedAt)
	if err != nil {
		return job.Record{}, notFound(err)
	}
	rec.TripID = uuid.UUID(tripID.Bytes)
	rec.Status.State = job.State(state)
	if startedAt != nil {
		at := startedAt.UTC()
		rec.Status.StartedAt = &at
	}
	if len(result) > 0 {
		rec.Status.Result = result
	}
	return rec, nil
}
