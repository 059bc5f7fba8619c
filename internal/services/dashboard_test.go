package services

import (
	"context"
	"ratlogger/internal/domain"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAPI counts backend hits per endpoint.
type countingAPI struct {
	DashboardAPI

	mu    sync.Mutex
	calls map[string]int
}

func (c *countingAPI) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
}

func (c *countingAPI) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func (c *countingAPI) ListMySightings(ctx context.Context, token string) ([]domain.Sighting, error) {
	c.hit("mine")
	return c.DashboardAPI.ListMySightings(ctx, token)
}

func (c *countingAPI) ListNearbySightings(ctx context.Context, token string, center domain.Coordinates) ([]domain.Sighting, error) {
	c.hit("nearby")
	return c.DashboardAPI.ListNearbySightings(ctx, token, center)
}

func (c *countingAPI) Stats(ctx context.Context, token string) (domain.Stats, error) {
	c.hit("stats")
	return c.DashboardAPI.Stats(ctx, token)
}

func (c *countingAPI) Leaderboard(ctx context.Context, token string) ([]domain.LeaderboardEntry, error) {
	c.hit("leaderboard")
	return c.DashboardAPI.Leaderboard(ctx, token)
}

func (c *countingAPI) Achievements(ctx context.Context, token string) (domain.AchievementSummary, error) {
	c.hit("achievements")
	return c.DashboardAPI.Achievements(ctx, token)
}

func TestDashboardCachesPerView(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	f.backend.SetSightings(sighting("1", 4.35, 50.85), sighting("2", 2.35, 48.85))

	api := &countingAPI{DashboardAPI: f.backend}
	d := NewDashboard(f.session, api, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mine, err := d.MyReports(ctx)
		require.NoError(t, err)
		assert.Len(t, mine, 2)
	}
	assert.Equal(t, 1, api.count("mine"))

	near, err := d.Nearby(ctx, domain.Coordinates{Lon: 4.36, Lat: 50.85})
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "1", near[0].ID)

	_, err = d.Nearby(ctx, domain.Coordinates{Lon: 2.35, Lat: 48.85})
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("nearby"), "different centers are cached separately")

	d.Invalidate()
	_, err = d.MyReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("mine"))
}

// slowAPI answers the first "mine" read with data fetched before it
// blocks, like a response still in flight.
type slowAPI struct {
	*countingAPI
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowAPI) ListMySightings(ctx context.Context, token string) ([]domain.Sighting, error) {
	out, err := s.countingAPI.ListMySightings(ctx, token)
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return out, err
}

func TestDashboardInvalidateDropsInFlightResult(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	f.backend.SetSightings(sighting("1", 4.35, 50.85))

	api := &slowAPI{
		countingAPI: &countingAPI{DashboardAPI: f.backend},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	d := NewDashboard(f.session, api, time.Minute)
	ctx := context.Background()

	done := make(chan []domain.Sighting, 1)
	go func() {
		list, err := d.MyReports(ctx)
		assert.NoError(t, err)
		done <- list
	}()

	<-api.entered
	f.backend.SetSightings(sighting("2", 4.36, 50.85), sighting("1", 4.35, 50.85))
	d.Invalidate()
	close(api.release)
	require.Len(t, <-done, 1)

	list, err := d.MyReports(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, api.count("mine"))
}

func TestDashboardWithoutCache(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	api := &countingAPI{DashboardAPI: f.backend}
	d := NewDashboard(f.session, api, 0)

	for i := 0; i < 2; i++ {
		_, err := d.Stats(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, api.count("stats"))
}

func TestDashboardOverview(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	f.backend.SetSightings(sighting("1", 4.35, 50.85))
	d := NewDashboard(f.session, f.backend, time.Minute)

	o, err := d.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, o.Stats.TotalReports)
	require.Len(t, o.Leaderboard, 1)
	assert.Equal(t, "remy", o.Leaderboard[0].Username)
	assert.Equal(t, domain.RankNovice, o.Achievements.UserStats.Rank)
}

func TestDashboardRequiresSession(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	d := NewDashboard(f.session, f.backend, time.Minute)

	_, err := d.Overview(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = d.Nearby(context.Background(), domain.Coordinates{Lon: 200, Lat: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
}
