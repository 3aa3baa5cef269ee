package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Record is the durable form of a job: one per (trip, feature).
// Polls counts result checks made since generation started, across restarts.
type Record struct {
	TripID    uuid.UUID `json:"trip_id"`
	Feature   string    `json:"feature"`
	Status    Status    `json:"status"`
	Polls     int       `json:"polls"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordStore persists job records. Get returns domain.ErrNotFound (wrapped)
// when no record exists.
type RecordStore interface {
	Get(ctx context.Context, tripID uuid.UUID, feature string) (Record, error)
	Save(ctx context.Context, rec Record) (Record, error)
}

// Fetcher checks whether a generated result is available yet.
type Fetcher interface {
	Fetch(ctx context.Context, tripID uuid.UUID, feature string) (json.RawMessage, bool, error)
}

// PollerConfig bounds a Poller.
type PollerConfig struct {
	Interval time.Duration
	MaxPolls int
}

// Poller drives a generating job to a terminal state by polling for its result.
type Poller struct {
	store   RecordStore
	fetcher Fetcher
	cfg     PollerConfig
	logger  *slog.Logger
}

// NewPoller creates a Poller. Zero config values fall back to a 3s interval
// and 100 polls.
func NewPoller(store RecordStore, fetcher Fetcher, cfg PollerConfig, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 100
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{store: store, fetcher: fetcher, cfg: cfg, logger: logger}
}

// Resume polls the job for (tripID, feature) until it leaves the generating
// state, its result arrives, or the poll budget runs out. The poll count is
// saved after each poll so a later Resume continues where this one stopped.
// A job that is not generating is returned as is.
func (p *Poller) Resume(ctx context.Context, tripID uuid.UUID, feature string) (Record, error) {
	rec, err := p.store.Get(ctx, tripID, feature)
	if err != nil {
		return Record{}, fmt.Errorf("job.Poller.Resume: %w", err)
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for rec.Status.State == StateGenerating {
		if rec.Polls >= p.cfg.MaxPolls {
			p.logger.Warn("job timed out", "trip_id", tripID, "feature", feature, "polls", rec.Polls)
			return p.apply(ctx, rec, Timeout{})
		}

		select {
		case <-ctx.Done():
			return rec, fmt.Errorf("job.Poller.Resume: %w", ctx.Err())
		case <-ticker.C:
		}

		// Someone else may have completed or failed the job meanwhile.
		latest, err := p.store.Get(ctx, tripID, feature)
		if err != nil {
			return rec, fmt.Errorf("job.Poller.Resume: %w", err)
		}
		if latest.Status.State != StateGenerating {
			return latest, nil
		}
		rec = latest

		result, ready, err := p.fetcher.Fetch(ctx, tripID, feature)
		rec.Polls++
		if err != nil {
			p.logger.Warn("job poll failed", "trip_id", tripID, "feature", feature, "poll", rec.Polls, "error", err)
		}
		if ready {
			return p.apply(ctx, rec, Complete{Result: result})
		}
		saved, err := p.store.Save(ctx, rec)
		if err != nil {
			return rec, fmt.Errorf("job.Poller.Resume: %w", err)
		}
		rec = saved
	}
	return rec, nil
}

func (p *Poller) apply(ctx context.Context, rec Record, ev Event) (Record, error) {
	next, err := Transition(rec.Status, ev)
	if err != nil {
		return rec, fmt.Errorf("job.Poller.apply: %w", err)
	}
	rec.Status = next
	saved, err := p.store.Save(ctx, rec)
	if err != nil {
		return rec, fmt.Errorf("job.Poller.apply: %w", err)
	}
	return saved, nil
}
