package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/ports"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// Backend reads behind the reports, stats and gamification views.
type DashboardAPI interface {
	ListMySightings(ctx context.Context, token string) ([]domain.Sighting, error)
	ListNearbySightings(ctx context.Context, token string, center domain.Coordinates) ([]domain.Sighting, error)
	Stats(ctx context.Context, token string) (domain.Stats, error)
	Leaderboard(ctx context.Context, token string) ([]domain.LeaderboardEntry, error)
	Achievements(ctx context.Context, token string) (domain.AchievementSummary, error)
}

type Overview struct {
	Stats        domain.Stats
	Leaderboard  []domain.LeaderboardEntry
	Achievements domain.AchievementSummary
}

// Dashboard serves read-only views with a short per-session cache.
type Dashboard struct {
	session ports.SessionHandle
	api     DashboardAPI
	cache   *gocache.Cache

	// Bumped by Invalidate; loads started under an older value are not cached.
	mu  sync.Mutex
	gen uint64
}

// A ttl of zero disables caching.
func NewDashboard(session ports.SessionHandle, api DashboardAPI, ttl time.Duration) *Dashboard {
	d := &Dashboard{session: session, api: api}
	if ttl > 0 {
		// No janitor: expired entries are skipped by Get and replaced on Set.
		d.cache = gocache.New(ttl, 0)
	}
	return d
}

// Invalidate drops every cached view, e.g. after a new report.
func (d *Dashboard) Invalidate() {
	if d.cache == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.cache.Flush()
}

func cached[T any](ctx context.Context, d *Dashboard, name string, load func(ctx context.Context, token string) (T, error)) (T, error) {
	var zero T

	token, ok := d.session.Token()
	if !ok {
		return zero, domain.ErrUnauthenticated
	}

	key := name + ":" + tokenKey(token)
	if d.cache != nil {
		if v, ok := d.cache.Get(key); ok {
			return v.(T), nil
		}
	}

	d.mu.Lock()
	gen := d.gen
	d.mu.Unlock()

	v, err := load(ctx, token)
	if err != nil {
		return zero, err
	}

	if d.cache != nil {
		d.mu.Lock()
		if d.gen == gen {
			d.cache.Set(key, v, gocache.DefaultExpiration)
		}
		d.mu.Unlock()
	}
	return v, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func (d *Dashboard) MyReports(ctx context.Context) ([]domain.Sighting, error) {
	return cached(ctx, d, "mine", d.api.ListMySightings)
}

func (d *Dashboard) Nearby(ctx context.Context, center domain.Coordinates) ([]domain.Sighting, error) {
	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("nearby: %w", err)
	}
	return cached(ctx, d, "nearby:"+center.String(), func(ctx context.Context, token string) ([]domain.Sighting, error) {
		return d.api.ListNearbySightings(ctx, token, center)
	})
}

func (d *Dashboard) Stats(ctx context.Context) (domain.Stats, error) {
	return cached(ctx, d, "stats", d.api.Stats)
}

func (d *Dashboard) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return cached(ctx, d, "leaderboard", d.api.Leaderboard)
}

func (d *Dashboard) Achievements(ctx context.Context) (domain.AchievementSummary, error) {
	return cached(ctx, d, "achievements", d.api.Achievements)
}

// Overview fetches stats, leaderboard and achievements concurrently.
func (d *Dashboard) Overview(ctx context.Context) (Overview, error) {
	var out Overview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := d.Stats(gctx)
		out.Stats = s
		return err
	})
	g.Go(func() error {
		l, err := d.Leaderboard(gctx)
		out.Leaderboard = l
		return err
	})
	g.Go(func() error {
		a, err := d.Achievements(gctx)
		out.Achievements = a
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("overview: %w", err)
	}
	return out, nil
}
