package service_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/service"
)

func TestExportService_Export_OneRowPerReservation(t *testing.T) {
	var loads atomic.Int32
	dinner := eurDinner()
	snap := tokyoSnapshot(dinner)
	svc := service.NewExportService(staticSnapshots(snap, &loads))

	rows, err := svc.Export(context.Background(), snap.Trip.ID)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Japan Spring", rows[0].TripTitle)
	assert.Equal(t, "Tokyo", rows[0].SegmentTitle)
	assert.Equal(t, dinner.ID.String(), rows[0].ReservationID)
	assert.Equal(t, "EUR", rows[0].CurrencyCode)
	assert.Equal(t, "2025-04-02", rows[0].Date)
}

func TestExportService_Export_EmptySegmentStillListed(t *testing.T) {
	var loads atomic.Int32
	snap := tokyoSnapshot()
	svc := service.NewExportService(staticSnapshots(snap, &loads))

	rows, err := svc.Export(context.Background(), snap.Trip.ID)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].ReservationID)
}

func TestExportService_Export_UnknownTrip(t *testing.T) {
	var loads atomic.Int32
	svc := service.NewExportService(staticSnapshots(tokyoSnapshot(), &loads))

	_, err := svc.Export(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
