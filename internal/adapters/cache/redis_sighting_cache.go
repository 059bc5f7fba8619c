package cache

import (
	"context"
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/obs"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Redis backed snapshot, stored as one JSON array under
// "ratlogger:<namespace>:snapshot" next to the session keys.
type RedisSightingCache struct {
	rdb redis.UniversalClient
	key string
}

type snapshotRecord struct {
	ID          string    `json:"id"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewRedisSightingCache(rdb redis.UniversalClient, namespace string) *RedisSightingCache {
	return &RedisSightingCache{rdb: rdb, key: "ratlogger:" + namespace + ":snapshot"}
}

func (c *RedisSightingCache) Load(ctx context.Context) (_ []domain.Sighting, err error) {
	defer obs.Time(ctx, "sighting.cache.redis.Load")(&err)

	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load sighting cache: redis get: %w", err)
	}

	var records []snapshotRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("load sighting cache: decode: %w", err)
	}

	out := make([]domain.Sighting, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Sighting{
			ID:          r.ID,
			Coordinates: domain.Coordinates{Lon: r.Lon, Lat: r.Lat},
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

// Replace the cached set for the namespace.
func (c *RedisSightingCache) Store(ctx context.Context, sightings []domain.Sighting) (err error) {
	defer obs.Time(ctx, "sighting.cache.redis.Store")(&err)

	records := make([]snapshotRecord, 0, len(sightings))
	for _, s := range sightings {
		records = append(records, snapshotRecord{
			ID:          s.ID,
			Lon:         s.Coordinates.Lon,
			Lat:         s.Coordinates.Lat,
			Description: s.Description,
			CreatedAt:   s.CreatedAt,
		})
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("store sighting cache: encode: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("store sighting cache: redis set: %w", err)
	}
	return nil
}
