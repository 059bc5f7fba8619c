package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/obs"
)

// SQLSightingCache is the Postgres-backed sighting snapshot.
type SQLSightingCache struct {
	DB        *sql.DB
	Namespace string
}

func NewSQLSightingCache(db *sql.DB, namespace string) *SQLSightingCache {
	return &SQLSightingCache{DB: db, Namespace: namespace}
}

func (s *SQLSightingCache) Load(ctx context.Context) (_ []domain.Sighting, err error) {
	defer obs.Time(ctx, "sighting.cache.Load")(&err)

	if s.DB == nil {
		return nil, errors.New("sighting cache: db is nil")
	}

	q := `
	SELECT sighting_id, lon, lat, description, created_at
	FROM sighting_snapshot
	WHERE namespace = $1
	ORDER BY position;
	`

	rows, err := s.DB.QueryContext(ctx, q, s.Namespace)
	if err != nil {
		return nil, fmt.Errorf("load sighting cache: query sighting_snapshot table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Sighting, 0, 64)
	for rows.Next() {
		var sg domain.Sighting
		if err := rows.Scan(&sg.ID, &sg.Coordinates.Lon, &sg.Coordinates.Lat, &sg.Description, &sg.CreatedAt); err != nil {
			return nil, fmt.Errorf("load sighting cache: scan rows: %w", err)
		}
		out = append(out, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load sighting cache: row iteration: %w", err)
	}

	return out, nil
}

func (s *SQLSightingCache) Store(ctx context.Context, sightings []domain.Sighting) (err error) {
	defer obs.Time(ctx, "sighting.cache.Store")(&err)

	if s.DB == nil {
		return errors.New("sighting cache: db is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store sighting cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sighting_snapshot WHERE namespace = $1;`, s.Namespace); err != nil {
		return fmt.Errorf("store sighting cache: clear namespace: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO sighting_snapshot (namespace, position, sighting_id, lon, lat, description, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`)
	if err != nil {
		return fmt.Errorf("store sighting cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for i, sg := range sightings {
		if _, err := stmt.ExecContext(ctx, s.Namespace, i, sg.ID, sg.Coordinates.Lon, sg.Coordinates.Lat, sg.Description, sg.CreatedAt); err != nil {
			return fmt.Errorf("store sighting cache id=%q: %w", sg.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store sighting cache commit: %w", err)
	}

	return nil
}
