package cache

import (
	"context"
	"database/sql"
	"ratlogger/internal/adapters/repositories"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/db"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func openTestSqlite(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSqlite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := repositories.InitSchema(context.Background(), conn, repositories.DialectSqlite); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return conn
}

func testSightings() []domain.Sighting {
	return []domain.Sighting{
		{ID: "2", Coordinates: domain.Coordinates{Lon: 4.35, Lat: 50.85}, Description: "near the canal", CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
		{ID: "1", Coordinates: domain.Coordinates{Lon: 2.15, Lat: 41.39}, CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 500, time.UTC)},
	}
}

func TestSqliteSightingCacheRoundTrip(t *testing.T) {
	conn := openTestSqlite(t)
	ctx := context.Background()

	c := NewSqliteSightingCache(conn, "default")

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("empty load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty cache returned %d sightings", len(got))
	}

	want := testSightings()
	if err := c.Store(ctx, want); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err = c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sightings, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Coordinates != want[i].Coordinates || got[i].Description != want[i].Description {
			t.Errorf("sighting %d = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("sighting %d created_at = %v, want %v", i, got[i].CreatedAt, want[i].CreatedAt)
		}
	}

	// A second store replaces, never appends.
	if err := c.Store(ctx, want[:1]); err != nil {
		t.Fatalf("second store: %v", err)
	}
	got, _ = c.Load(ctx)
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("after replace got %+v", got)
	}

	// Namespaces are isolated.
	other := NewSqliteSightingCache(conn, "other")
	got, _ = other.Load(ctx)
	if len(got) != 0 {
		t.Fatalf("other namespace sees %d sightings", len(got))
	}
}

func TestSQLSightingCacheStore(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	sightings := testSightings()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sighting_snapshot WHERE namespace = $1;`)).
		WithArgs("default").
		WillReturnResult(sqlmock.NewResult(0, 3))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO sighting_snapshot`))
	for i, sg := range sightings {
		prep.ExpectExec().
			WithArgs("default", i, sg.ID, sg.Coordinates.Lon, sg.Coordinates.Lat, sg.Description, sg.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	c := NewSQLSightingCache(conn, "default")
	if err := c.Store(context.Background(), sightings); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLSightingCacheLoad(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"sighting_id", "lon", "lat", "description", "created_at"}).
		AddRow("7", 3.0, 48.0, "bins", created)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sighting_snapshot`)).WithArgs("default").WillReturnRows(rows)

	got, err := NewSQLSightingCache(conn, "default").Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "7" || got[0].Coordinates != (domain.Coordinates{Lon: 3, Lat: 48}) {
		t.Fatalf("got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRedisSightingCacheSurvivesNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisSightingCache(rdb, "default")

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("empty load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty cache returned %d sightings", len(got))
	}

	want := testSightings()
	if err := c.Store(ctx, want); err != nil {
		t.Fatalf("store: %v", err)
	}
	rdb.Close()

	// A fresh client, as after a restart, still sees the snapshot.
	rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	got, err = NewRedisSightingCache(rdb, "default").Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sightings, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Coordinates != want[i].Coordinates || !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("sighting %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	other, err := NewRedisSightingCache(rdb, "other").Load(ctx)
	if err != nil || len(other) != 0 {
		t.Fatalf("other namespace = %v, %v", other, err)
	}
}

func TestMemorySightingCacheCopies(t *testing.T) {
	c := NewMemorySightingCache()
	in := testSightings()
	if err := c.Store(context.Background(), in); err != nil {
		t.Fatalf("store: %v", err)
	}
	in[0].ID = "mutated"

	got, _ := c.Load(context.Background())
	if got[0].ID != "2" {
		t.Fatalf("cache shares caller's slice: %q", got[0].ID)
	}
}
