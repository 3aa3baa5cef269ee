package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// ExportService flattens a trip's itinerary into export rows.
type ExportService struct {
	snapshots SnapshotLoader
}

// NewExportService constructs an ExportService.
func NewExportService(snapshots SnapshotLoader) *ExportService {
	return &ExportService{snapshots: snapshots}
}

// Export returns one row per reservation, and one per empty segment, in
// itinerary order.
func (s *ExportService) Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error) {
	snap, err := s.snapshots.Load(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	return domain.ExportRows(snap), nil
}
