// Package cache stores derived per-trip results keyed by (trip, feature),
// with explicit invalidation.
package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Features cached by the analysis service.
const (
	FeatureTimeline = "timeline"
	FeatureBudget   = "budget"
)

// Key identifies one cached result.
type Key struct {
	TripID  uuid.UUID
	Feature string
}

// Store is a key-value store of encoded results. Get reports a miss with
// ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key Key) (value []byte, ok bool, err error)
	Set(ctx context.Context, key Key, value []byte) error
	Invalidate(ctx context.Context, key Key) error
	InvalidateTrip(ctx context.Context, tripID uuid.UUID) error
}

// Memory is an in-process Store. The zero value is not usable; call NewMemory.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Key][]byte)}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) InvalidateTrip(_ context.Context, tripID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if k.TripID == tripID {
			delete(m.entries, k)
		}
	}
	return nil
}
