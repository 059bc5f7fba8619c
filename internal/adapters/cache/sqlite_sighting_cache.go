package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/obs"
	"time"
)

// SQLite backed snapshot of the last sighting set drawn on the map.
// Each namespace holds one ordered set; Store replaces it wholesale.
type SqliteSightingCache struct {
	DB        *sql.DB
	Namespace string
}

func NewSqliteSightingCache(db *sql.DB, namespace string) *SqliteSightingCache {
	return &SqliteSightingCache{DB: db, Namespace: namespace}
}

// Load the cached sightings in their stored order.
func (s *SqliteSightingCache) Load(ctx context.Context) (_ []domain.Sighting, err error) {
	defer obs.Time(ctx, "sighting.cache.sqlite.Load")(&err)

	if s.DB == nil {
		return nil, errors.New("sighting cache: db is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT
		sighting_id,
		lon,
		lat,
		description,
		created_at
	FROM sighting_snapshot
	WHERE namespace = ?
	ORDER BY position;
	`, s.Namespace)
	if err != nil {
		return nil, fmt.Errorf("load sighting cache: query sighting_snapshot table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Sighting, 0, 64)
	for rows.Next() {
		var sg domain.Sighting
		var created string
		if err := rows.Scan(&sg.ID, &sg.Coordinates.Lon, &sg.Coordinates.Lat, &sg.Description, &created); err != nil {
			return nil, fmt.Errorf("load sighting cache: scan rows: %w", err)
		}

		sg.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("load sighting cache: parse created_at of %q: %w", sg.ID, err)
		}
		out = append(out, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load sighting cache: row iteration: %w", err)
	}

	return out, nil
}

// Replace the cached set for the namespace.
func (s *SqliteSightingCache) Store(ctx context.Context, sightings []domain.Sighting) (err error) {
	defer obs.Time(ctx, "sighting.cache.sqlite.Store")(&err)

	if s.DB == nil {
		return errors.New("sighting cache: db is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store sighting cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sighting_snapshot WHERE namespace = ?;`, s.Namespace); err != nil {
		return fmt.Errorf("store sighting cache: clear namespace: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO sighting_snapshot (
		namespace,
		position,
		sighting_id,
		lon,
		lat,
		description,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("store sighting cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for i, sg := range sightings {
		created := sg.CreatedAt.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.ExecContext(ctx, s.Namespace, i, sg.ID, sg.Coordinates.Lon, sg.Coordinates.Lat, sg.Description, created); err != nil {
			return fmt.Errorf("store sighting cache id=%q: %w", sg.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store sighting cache commit: %w", err)
	}

	return nil
}
