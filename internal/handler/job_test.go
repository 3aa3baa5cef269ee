package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/handler"
	"github.com/pkordes/itinerary-core/backend/internal/job"
)

const feature = "packing-list"

func jobRecord(tripID uuid.UUID, state job.State) job.Record {
	return job.Record{TripID: tripID, Feature: feature, Status: job.Status{State: state}}
}

func TestJobRoutes_DispatchToService(t *testing.T) {
	tests := []struct {
		name   string
		method string
		suffix string
		body   any
		op     string
		status int
	}{
		{"open", http.MethodGet, "", nil, "open", http.StatusOK},
		{"start", http.MethodPost, "", nil, "start", http.StatusAccepted},
		{"complete", http.MethodPost, "/complete", map[string]any{"result": map[string]any{"items": []string{"passport"}}}, "complete", http.StatusOK},
		{"fail", http.MethodPost, "/fail", map[string]any{"reason": "upstream error"}, "fail", http.StatusOK},
		{"reset", http.MethodPost, "/reset", nil, "reset", http.StatusOK},
		{"wait", http.MethodGet, "/wait", nil, "resume", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tripID := uuid.New()
			var gotOp, gotFeature string
			var gotArg any
			svc := &mockJobServicer{
				do: func(op string, id uuid.UUID, f string, arg any) (job.Record, error) {
					assert.Equal(t, tripID, id)
					gotOp, gotFeature, gotArg = op, f, arg
					return jobRecord(id, job.StateReady), nil
				},
			}

			rec := do(t, newHTTPHandler(handler.Services{Jobs: svc}), tc.method,
				"/trips/"+tripID.String()+"/jobs/"+feature+tc.suffix, tc.body)

			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.op, gotOp)
			assert.Equal(t, feature, gotFeature)

			switch tc.op {
			case "complete":
				raw, ok := gotArg.(json.RawMessage)
				require.True(t, ok)
				assert.JSONEq(t, `{"items":["passport"]}`, string(raw))
			case "fail":
				assert.Equal(t, "upstream error", gotArg)
			}

			var resp job.Record
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, job.StateReady, resp.Status.State)
		})
	}
}

func TestCompleteJob_422_MissingResult(t *testing.T) {
	rec := do(t, newHTTPHandler(handler.Services{Jobs: &mockJobServicer{}}), http.MethodPost,
		"/trips/"+uuid.New().String()+"/jobs/"+feature+"/complete", map[string]any{})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "result is required", decodeError(t, rec).Message)
}

func TestStartJob_422_InvalidTransition(t *testing.T) {
	svc := &mockJobServicer{
		do: func(_ string, id uuid.UUID, _ string, _ any) (job.Record, error) {
			return jobRecord(id, job.StateGenerating),
				fmt.Errorf("service.JobService.Start: %w", fmt.Errorf("submit from generating: %w", job.ErrInvalidTransition))
		},
	}

	rec := do(t, newHTTPHandler(handler.Services{Jobs: svc}), http.MethodPost,
		"/trips/"+uuid.New().String()+"/jobs/"+feature, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "invalid_transition", detail.Code)
	assert.Equal(t, "submit from generating", detail.Message)
}

func TestWaitJob_202_WhenStillGenerating(t *testing.T) {
	tripID := uuid.New()
	svc := &mockJobServicer{
		resume: func(ctx context.Context, id uuid.UUID, _ string) (job.Record, error) {
			<-ctx.Done()
			return jobRecord(id, job.StateGenerating), fmt.Errorf("job.Poller.Resume: %w", ctx.Err())
		},
	}

	rec := do(t, newHTTPHandler(handler.Services{Jobs: svc}), http.MethodGet,
		"/trips/"+tripID.String()+"/jobs/"+feature+"/wait", nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp job.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, job.StateGenerating, resp.Status.State)
}

func TestWaitJob_422_BadFeature(t *testing.T) {
	svc := &mockJobServicer{
		resume: func(_ context.Context, _ uuid.UUID, _ string) (job.Record, error) {
			return job.Record{}, fmt.Errorf("%w: feature must match ^[a-z][a-z0-9-]{0,39}$", domain.ErrValidation)
		},
	}

	rec := do(t, newHTTPHandler(handler.Services{Jobs: svc}), http.MethodGet,
		"/trips/"+uuid.New().String()+"/jobs/Bad_Feature/wait", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "feature must match")
}
