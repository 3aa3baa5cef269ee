package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-core/backend/internal/cache"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/job"
	"github.com/pkordes/itinerary-core/backend/internal/service"
)

const feature = "packing-list"

type jobFixture struct {
	svc   *service.JobService
	trip  domain.Trip
	store *cache.Memory
	key   cache.Key
}

func newJobFixture(t *testing.T) jobFixture {
	t.Helper()
	trip := validTrip()
	jobs := newMemJobs()
	store := cache.NewMemory()
	poller := job.NewPoller(jobs, service.NewCacheFetcher(store), job.PollerConfig{Interval: time.Millisecond, MaxPolls: 3}, nil)
	return jobFixture{
		svc:   service.NewJobService(echoTripRepo(trip), jobs, store, poller),
		trip:  trip,
		store: store,
		key:   cache.Key{TripID: trip.ID, Feature: feature},
	}
}

func TestJobService_Open_NoRecordAwaitsInput(t *testing.T) {
	f := newJobFixture(t)

	rec, err := f.svc.Open(context.Background(), f.trip.ID, feature)

	require.NoError(t, err)
	assert.Equal(t, job.StateAwaitingInput, rec.Status.State)
}

func TestJobService_Open_CachedResultIsReady(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, f.key, rawJSON(`{"items":["passport"]}`)))

	rec, err := f.svc.Open(ctx, f.trip.ID, feature)

	require.NoError(t, err)
	assert.Equal(t, job.StateReady, rec.Status.State)
	assert.JSONEq(t, `{"items":["passport"]}`, string(rec.Status.Result))
}

func TestJobService_Start_DiscardsPreviousResult(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, f.key, rawJSON(`{"old":true}`)))

	rec, err := f.svc.Start(ctx, f.trip.ID, feature)

	require.NoError(t, err)
	assert.Equal(t, job.StateGenerating, rec.Status.State)
	require.NotNil(t, rec.Status.StartedAt)
	_, ok, err := f.store.Get(ctx, f.key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobService_Start_WhileGenerating_Rejected(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, f.trip.ID, feature)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, f.trip.ID, feature)

	assert.ErrorIs(t, err, job.ErrInvalidTransition)
}

func TestJobService_Complete_CachesResult(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, f.trip.ID, feature)
	require.NoError(t, err)

	rec, err := f.svc.Complete(ctx, f.trip.ID, feature, rawJSON(`{"done":true}`))

	require.NoError(t, err)
	assert.Equal(t, job.StateReady, rec.Status.State)
	raw, ok, err := f.store.Get(ctx, f.key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"done":true}`, string(raw))
}

func TestJobService_Complete_NotGenerating(t *testing.T) {
	f := newJobFixture(t)

	_, err := f.svc.Complete(context.Background(), f.trip.ID, feature, rawJSON(`{}`))

	assert.ErrorIs(t, err, job.ErrInvalidTransition)
}

func TestJobService_Complete_InvalidJSON(t *testing.T) {
	f := newJobFixture(t)

	_, err := f.svc.Complete(context.Background(), f.trip.ID, feature, rawJSON(`{nope`))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestJobService_Fail(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, f.trip.ID, feature)
	require.NoError(t, err)

	rec, err := f.svc.Fail(ctx, f.trip.ID, feature, "model unavailable")

	require.NoError(t, err)
	assert.Equal(t, job.StateFailed, rec.Status.State)
	assert.Equal(t, "model unavailable", rec.Status.Reason)
}

func TestJobService_Reset_ClearsResult(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, f.trip.ID, feature)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.trip.ID, feature, rawJSON(`{"done":true}`))
	require.NoError(t, err)

	rec, err := f.svc.Reset(ctx, f.trip.ID, feature)

	require.NoError(t, err)
	assert.Equal(t, job.StateIdle, rec.Status.State)
	_, ok, err := f.store.Get(ctx, f.key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobService_Resume_PicksUpExternalResult(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, f.trip.ID, feature)
	require.NoError(t, err)
	// A producer writes the result straight to the cache.
	require.NoError(t, f.store.Set(ctx, f.key, rawJSON(`{"external":true}`)))

	rec, err := f.svc.Resume(ctx, f.trip.ID, feature)

	require.NoError(t, err)
	assert.Equal(t, job.StateReady, rec.Status.State)
	assert.JSONEq(t, `{"external":true}`, string(rec.Status.Result))
}

func TestJobService_Resume_TimesOut(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, f.trip.ID, feature)
	require.NoError(t, err)

	rec, err := f.svc.Resume(ctx, f.trip.ID, feature)

	require.NoError(t, err)
	assert.Equal(t, job.StateTimedOut, rec.Status.State)
	assert.Equal(t, 3, rec.Polls)

	// A timed-out job can be started again with a fresh poll budget.
	rec, err = f.svc.Start(ctx, f.trip.ID, feature)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Polls)
}

func TestJobService_Resume_NeverStarted(t *testing.T) {
	f := newJobFixture(t)

	rec, err := f.svc.Resume(context.Background(), f.trip.ID, feature)

	require.NoError(t, err)
	assert.Equal(t, job.StateIdle, rec.Status.State)
}

func TestJobService_RejectsBadFeature(t *testing.T) {
	f := newJobFixture(t)

	for _, name := range []string{"", "Packing", "has space", "-leading"} {
		_, err := f.svc.Open(context.Background(), f.trip.ID, name)
		assert.ErrorIs(t, err, domain.ErrValidation, name)
	}
}

func TestJobService_UnknownTrip(t *testing.T) {
	f := newJobFixture(t)

	_, err := f.svc.Open(context.Background(), uuid.New(), feature)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
