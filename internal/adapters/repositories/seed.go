package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"ratlogger/internal/domain"
	"ratlogger/internal/ports"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

type SightingSeed struct {
	ID          string    `json:"id"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Replace the sighting snapshot with the contents of a JSON file.
// Returns the number of sightings stored.
func SeedSnapshotFromJSON(ctx context.Context, cache ports.SnapshotCache, jsonPath string) (int, error) {
	if cache == nil {
		return 0, errors.New("seed snapshot: cache is nil")
	}

	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed snapshot: read %q: %w", jsonPath, err)
	}

	var data []SightingSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed snapshot: parse json: %w", err)
	}

	rows := make([]domain.Sighting, 0, len(data))
	seen := make(map[string]struct{}, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return 0, fmt.Errorf("seed snapshot: item at index %d: id cannot be empty", i+1)
		}
		if _, ok := seen[id]; ok {
			return 0, fmt.Errorf("seed snapshot: item at index %d: duplicate id %q", i+1, id)
		}
		seen[id] = struct{}{}

		c := domain.Coordinates{Lon: item.Lon, Lat: item.Lat}
		if err := c.Validate(); err != nil {
			return 0, fmt.Errorf("seed snapshot: item %q: %w", id, err)
		}

		rows = append(rows, domain.Sighting{
			ID:          id,
			Coordinates: c,
			Description: item.Description,
			CreatedAt:   item.CreatedAt,
		})
	}

	if err := cache.Store(ctx, rows); err != nil {
		return 0, fmt.Errorf("seed snapshot: %w", err)
	}

	return len(rows), nil
}
