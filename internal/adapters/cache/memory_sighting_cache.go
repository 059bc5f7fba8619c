package cache

import (
	"context"
	"ratlogger/internal/domain"
	"slices"
	"sync"
)

// In-process snapshot used with the memory session store.
type MemorySightingCache struct {
	mu        sync.Mutex
	sightings []domain.Sighting
}

func NewMemorySightingCache() *MemorySightingCache {
	return &MemorySightingCache{}
}

func (m *MemorySightingCache) Load(ctx context.Context) ([]domain.Sighting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sightings), nil
}

func (m *MemorySightingCache) Store(ctx context.Context, sightings []domain.Sighting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sightings = slices.Clone(sightings)
	return nil
}
