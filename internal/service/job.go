package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/cache"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/job"
	"github.com/pkordes/itinerary-core/backend/internal/repo"
)

var featureName = regexp.MustCompile(`^[a-z][a-z0-9-]{0,39}$`)

// Resumer drives a generating job to a terminal state. *job.Poller satisfies it.
type Resumer interface {
	Resume(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error)
}

// JobService manages per-(trip, feature) generation jobs. Results delivered
// through Complete are written to the cache under the same key, which is also
// where the poller looks for them.
type JobService struct {
	trips  repo.TripRepo
	jobs   job.RecordStore
	cache  cache.Store
	poller Resumer
	now    func() time.Time
}

// NewJobService constructs a JobService.
func NewJobService(trips repo.TripRepo, jobs job.RecordStore, store cache.Store, poller Resumer) *JobService {
	return &JobService{trips: trips, jobs: jobs, cache: store, poller: poller, now: time.Now}
}

// Open returns the job's status as seen by a consumer opening the feature: a
// cached result makes an idle job ready; otherwise it awaits input. A job in
// progress is returned unchanged.
func (s *JobService) Open(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	rec, err := s.load(ctx, tripID, feature)
	if err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Open: %w", err)
	}
	var cached json.RawMessage
	if rec.Status.State != job.StateGenerating && rec.Status.State != job.StateReady {
		raw, ok, err := s.cache.Get(ctx, cache.Key{TripID: tripID, Feature: feature})
		if err != nil {
			return job.Record{}, fmt.Errorf("service.JobService.Open: %w", err)
		}
		if ok {
			cached = raw
		}
	}
	return s.apply(ctx, "Open", rec, job.Open{Cached: cached})
}

// Start begins generation. Any previous result is discarded.
func (s *JobService) Start(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	rec, err := s.load(ctx, tripID, feature)
	if err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Start: %w", err)
	}
	ev := job.Submit{At: s.now()}
	if _, err := job.Transition(rec.Status, ev); err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Start: %w", err)
	}
	if err := s.cache.Invalidate(ctx, cache.Key{TripID: tripID, Feature: feature}); err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Start: %w", err)
	}
	rec.Polls = 0
	return s.apply(ctx, "Start", rec, ev)
}

// Complete delivers a generated result, caching it and marking the job ready.
func (s *JobService) Complete(ctx context.Context, tripID uuid.UUID, feature string, result json.RawMessage) (job.Record, error) {
	if !json.Valid(result) {
		return job.Record{}, fmt.Errorf("service.JobService.Complete: %w: result must be valid JSON", domain.ErrValidation)
	}
	rec, err := s.load(ctx, tripID, feature)
	if err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Complete: %w", err)
	}
	saved, err := s.apply(ctx, "Complete", rec, job.Complete{Result: result})
	if err != nil {
		return job.Record{}, err
	}
	if err := s.cache.Set(ctx, cache.Key{TripID: tripID, Feature: feature}, result); err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Complete: %w", err)
	}
	return saved, nil
}

// Fail marks a generating job as failed.
func (s *JobService) Fail(ctx context.Context, tripID uuid.UUID, feature, reason string) (job.Record, error) {
	rec, err := s.load(ctx, tripID, feature)
	if err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Fail: %w", err)
	}
	return s.apply(ctx, "Fail", rec, job.Fail{Reason: reason})
}

// Reset returns the job to idle and drops its cached result.
func (s *JobService) Reset(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	rec, err := s.load(ctx, tripID, feature)
	if err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Reset: %w", err)
	}
	if err := s.cache.Invalidate(ctx, cache.Key{TripID: tripID, Feature: feature}); err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Reset: %w", err)
	}
	return s.apply(ctx, "Reset", rec, job.Reset{})
}

// Resume waits, bounded by ctx, until a generating job reaches a terminal
// state. When ctx ends first the last seen record is returned with the error.
func (s *JobService) Resume(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	if _, err := s.load(ctx, tripID, feature); err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.Resume: %w", err)
	}
	rec, err := s.poller.Resume(ctx, tripID, feature)
	if errors.Is(err, domain.ErrNotFound) {
		// Never started: nothing to wait for.
		return job.Record{TripID: tripID, Feature: feature, Status: job.Status{State: job.StateIdle}}, nil
	}
	if err != nil {
		// rec is the last state seen, so a caller whose ctx expired can still report it.
		return rec, fmt.Errorf("service.JobService.Resume: %w", err)
	}
	return rec, nil
}

// load validates the key, checks the trip exists, and returns the stored
// record or a fresh idle one.
func (s *JobService) load(ctx context.Context, tripID uuid.UUID, feature string) (job.Record, error) {
	if !featureName.MatchString(feature) {
		return job.Record{}, fmt.Errorf("%w: feature must be a lowercase slug", domain.ErrValidation)
	}
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return job.Record{}, err
	}
	rec, err := s.jobs.Get(ctx, tripID, feature)
	if errors.Is(err, domain.ErrNotFound) {
		return job.Record{TripID: tripID, Feature: feature, Status: job.Status{State: job.StateIdle}}, nil
	}
	if err != nil {
		return job.Record{}, err
	}
	return rec, nil
}

func (s *JobService) apply(ctx context.Context, op string, rec job.Record, ev job.Event) (job.Record, error) {
	next, err := job.Transition(rec.Status, ev)
	if err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.%s: %w", op, err)
	}
	rec.Status = next
	saved, err := s.jobs.Save(ctx, rec)
	if err != nil {
		return job.Record{}, fmt.Errorf("service.JobService.%s: %w", op, err)
	}
	return saved, nil
}

// CacheFetcher is the job.Fetcher that finds results in the cache.
type CacheFetcher struct {
	cache cache.Store
}

// NewCacheFetcher constructs a CacheFetcher.
func NewCacheFetcher(store cache.Store) *CacheFetcher {
	return &CacheFetcher{cache: store}
}

// Fetch reports the cached result for (tripID, feature), if any.
func (f *CacheFetcher) Fetch(ctx context.Context, tripID uuid.UUID, feature string) (json.RawMessage, bool, error) {
	raw, ok, err := f.cache.Get(ctx, cache.Key{TripID: tripID, Feature: feature})
	if err != nil || !ok {
		return nil, false, err
	}
	return raw, true, nil
}
