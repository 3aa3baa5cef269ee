package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/budget"
	"github.com/pkordes/itinerary-core/backend/internal/cache"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/timeline"
)

// SnapshotLoader loads a trip snapshot. *SnapshotService satisfies it.
type SnapshotLoader interface {
	Load(ctx context.Context, tripID uuid.UUID) (domain.Snapshot, error)
}

// TimelineView is a trip's expanded calendar.
type TimelineView struct {
	Trip         domain.Trip       `json:"trip"`
	Schedule     timeline.Schedule `json:"schedule"`
	PendingCount int               `json:"pending_count"`
}

// AnalysisService runs the timeline expansion and the budget analysis over
// stored trips and caches their results per (trip, feature).
//
// Budget passes for the same trip may overlap (each waits on currency
// conversion). The pass started from the most recent input wins: a pass whose
// input key is no longer the latest one seen for its trip returns
// domain.ErrStale and is not cached, even if it finishes last.
type AnalysisService struct {
	snapshots SnapshotLoader
	analyzer  *budget.Analyzer
	cache     cache.Store
	logger    *slog.Logger

	mu     sync.Mutex
	latest map[uuid.UUID]*budgetPass
}

// budgetPass is the latest input seen for a trip and how many passes over
// that trip are still running. The entry is dropped when none are.
type budgetPass struct {
	input    string
	inflight int
}

// NewAnalysisService constructs an AnalysisService. A nil logger uses slog.Default.
func NewAnalysisService(snapshots SnapshotLoader, analyzer *budget.Analyzer, store cache.Store, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		snapshots: snapshots,
		analyzer:  analyzer,
		cache:     store,
		logger:    logger,
		latest:    make(map[uuid.UUID]*budgetPass),
	}
}

// Timeline returns the trip's expanded calendar, from cache when possible.
func (s *AnalysisService) Timeline(ctx context.Context, tripID uuid.UUID) (TimelineView, error) {
	key := cache.Key{TripID: tripID, Feature: cache.FeatureTimeline}
	var view TimelineView
	if s.cached(ctx, key, &view) {
		return view, nil
	}

	snap, err := s.snapshots.Load(ctx, tripID)
	if err != nil {
		return TimelineView{}, fmt.Errorf("service.AnalysisService.Timeline: %w", err)
	}
	view = TimelineView{
		Trip:         snap.Trip,
		Schedule:     timeline.Expand(snap.Trip, snap.Segments),
		PendingCount: timeline.PendingCount(snap),
	}
	s.store(ctx, key, view)
	return view, nil
}

// Budget analyzes the trip with the given preferences. A cached result is
// reused when it was computed from the same input.
func (s *AnalysisService) Budget(ctx context.Context, tripID uuid.UUID, prefs budget.Preferences) (budget.Result, error) {
	snap, err := s.snapshots.Load(ctx, tripID)
	if err != nil {
		return budget.Result{}, fmt.Errorf("service.AnalysisService.Budget: %w", err)
	}

	key := cache.Key{TripID: tripID, Feature: cache.FeatureBudget}
	var prev *budget.Result
	var cached budget.Result
	if s.cached(ctx, key, &cached) {
		prev = &cached
	}

	input := s.analyzer.InputKey(snap, prefs)
	s.observe(tripID, input)
	defer s.release(tripID)

	res, err := s.analyzer.AnalyzeIfChanged(ctx, snap, prefs, prev)
	if err != nil {
		return budget.Result{}, fmt.Errorf("service.AnalysisService.Budget: %w", err)
	}
	if prev != nil && res.InputKey == prev.InputKey {
		return res, nil
	}
	if !s.isLatest(tripID, input) {
		s.logger.InfoContext(ctx, "discarding superseded budget pass", "trip_id", tripID)
		return budget.Result{}, fmt.Errorf("service.AnalysisService.Budget: %w", domain.ErrStale)
	}
	s.store(ctx, key, res)
	return res, nil
}

// Invalidate drops every cached result of the trip.
func (s *AnalysisService) Invalidate(ctx context.Context, tripID uuid.UUID) error {
	if err := s.cache.InvalidateTrip(ctx, tripID); err != nil {
		return fmt.Errorf("service.AnalysisService.Invalidate: %w", err)
	}
	return nil
}

// observe records input as the latest input seen for the trip and counts a
// running pass. Every observe is paired with a release.
func (s *AnalysisService) observe(tripID uuid.UUID, input string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.latest[tripID]
	if !ok {
		p = &budgetPass{}
		s.latest[tripID] = p
	}
	p.input = input
	p.inflight++
}

func (s *AnalysisService) release(tripID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.latest[tripID]
	if !ok {
		return
	}
	if p.inflight--; p.inflight <= 0 {
		delete(s.latest, tripID)
	}
}

func (s *AnalysisService) isLatest(tripID uuid.UUID, input string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.latest[tripID]
	return ok && p.input == input
}

// tracked returns how many trips have a budget pass running.
func (s *AnalysisService) tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latest)
}

// cached decodes the entry for key into dst. Read or decode failures are
// treated as a miss.
func (s *AnalysisService) cached(ctx context.Context, key cache.Key, dst any) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "trip_id", key.TripID, "feature", key.Feature, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.WarnContext(ctx, "cache entry undecodable", "trip_id", key.TripID, "feature", key.Feature, "error", err)
		return false
	}
	return true
}

func (s *AnalysisService) store(ctx context.Context, key cache.Key, v any) {
	raw, err := json.Marshal(v)
	if err == nil {
		err = s.cache.Set(ctx, key, raw)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "trip_id", key.TripID, "feature", key.Feature, "error", err)
	}
}
