package ports

import (
	"context"
	"ratlogger/internal/domain"
)

// Last sighting set fetched from the backend, kept for offline starts.
type SnapshotCache interface {
	Load(ctx context.Context) ([]domain.Sighting, error)
	// Replace the stored set.
	Store(ctx context.Context, sightings []domain.Sighting) error
}
