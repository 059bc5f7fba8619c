package services

import (
	"context"
	"errors"
	"ratlogger/internal/adapters/cache"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/metrics"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReloadDrawsExactlyFetchedSightings(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))

	f.backend.SetSightings(sighting("1", 4.35, 50.85), sighting("2", 2.15, 41.39))

	require.NoError(t, f.sync.Reload(context.Background()))

	drawn := f.view(t).Markers()
	require.Len(t, drawn, 2)
	assert.ElementsMatch(t, []domain.Coordinates{{Lon: 4.35, Lat: 50.85}, {Lon: 2.15, Lat: 41.39}}, positions(drawn))
	for _, m := range drawn {
		assert.False(t, m.Highlight)
		assert.NotEmpty(t, m.SightingID)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.MarkersDrawn))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reloads.WithLabelValues(metrics.ReloadOK)))

	// Snapshot follows the last drawn set.
	cached, err := f.snapshot.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestReloadWithoutTokenIsNoop(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))
	f.backend.SetSightings(sighting("1", 4.35, 50.85))

	require.NoError(t, f.sync.Reload(context.Background()))
	assert.Zero(t, f.backend.ListCalls())
	assert.Empty(t, f.view(t).Markers())
}

func TestReloadBeforeMapInitIsNoop(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	f.backend.SetSightings(sighting("1", 4.35, 50.85))

	require.NoError(t, f.sync.Reload(context.Background()))
	assert.Zero(t, f.backend.ListCalls())
}

func TestReloadFailureKeepsMarkers(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))
	f.backend.SetSightings(sighting("1", 4.35, 50.85), sighting("2", 2.15, 41.39))
	require.NoError(t, f.sync.Reload(context.Background()))

	boom := errors.New("connection reset")
	f.backend.ListFunc = func(context.Context, int, []domain.Sighting) ([]domain.Sighting, error) {
		return nil, boom
	}

	err := f.sync.Reload(context.Background())
	require.ErrorIs(t, err, boom)

	assert.Len(t, f.view(t).Markers(), 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reloads.WithLabelValues(metrics.ReloadError)))
	assert.Contains(t, f.sync.Status().LastError, "connection reset")
}

func TestOutOfOrderReloadsKeepNewestIssued(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))

	older := []domain.Sighting{sighting("old", 1, 1)}
	newer := []domain.Sighting{sighting("new-1", 4.35, 50.85), sighting("new-2", 2.15, 41.39)}

	entered := make(chan struct{})
	release := make(chan struct{})
	f.backend.ListFunc = func(_ context.Context, call int, _ []domain.Sighting) ([]domain.Sighting, error) {
		if call == 1 {
			close(entered)
			<-release
			return older, nil
		}
		return newer, nil
	}

	done := make(chan error, 1)
	go func() { done <- f.sync.Reload(context.Background()) }()

	<-entered
	require.NoError(t, f.sync.Reload(context.Background()))
	close(release)
	require.NoError(t, <-done)

	drawn := f.view(t).Markers()
	require.Len(t, drawn, 2)
	assert.ElementsMatch(t, []domain.Coordinates{{Lon: 4.35, Lat: 50.85}, {Lon: 2.15, Lat: 41.39}}, positions(drawn))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reloads.WithLabelValues(metrics.ReloadStale)))

	cached, err := f.snapshot.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestStartPollsUntilStopped(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))
	ctx := context.Background()

	f.sync.Start(ctx)
	f.sync.Start(ctx)
	assert.Equal(t, 1, f.backend.ListCalls(), "initial load")

	f.sched.Advance(29 * time.Second)
	assert.Equal(t, 1, f.backend.ListCalls())

	f.sched.Advance(time.Second)
	assert.Equal(t, 2, f.backend.ListCalls())

	f.sched.Advance(60 * time.Second)
	assert.Equal(t, 4, f.backend.ListCalls())
	assert.True(t, f.sync.Status().Running)

	f.sync.Stop()
	f.sync.Stop()
	f.sched.Advance(5 * time.Minute)
	assert.Equal(t, 4, f.backend.ListCalls())
	assert.False(t, f.sync.Status().Running)
}

func TestPollingFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))
	f.backend.SetSightings(sighting("1", 4.35, 50.85))

	f.sync.Start(context.Background())
	require.Len(t, f.view(t).Markers(), 1)

	f.backend.ListFunc = func(context.Context, int, []domain.Sighting) ([]domain.Sighting, error) {
		return nil, errors.New("backend down")
	}
	f.sched.Advance(30 * time.Second)

	assert.Len(t, f.view(t).Markers(), 1)
	assert.Equal(t, 2, f.backend.ListCalls())
}

func TestRestoreSnapshot(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	ctx := context.Background()

	require.NoError(t, f.snapshot.Store(ctx, []domain.Sighting{sighting("cached", 3, 48)}))

	n, err := f.sync.RestoreSnapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "map not initialized yet")

	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))
	n, err = f.sync.RestoreSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []domain.Coordinates{{Lon: 3, Lat: 48}}, positions(f.view(t).Markers()))

	// Fresh data replaces the snapshot and later restores are ignored.
	f.backend.SetSightings(sighting("1", 4.35, 50.85))
	require.NoError(t, f.sync.Reload(ctx))
	n, err = f.sync.RestoreSnapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []domain.Coordinates{{Lon: 4.35, Lat: 50.85}}, positions(f.view(t).Markers()))
}

func TestReloadUnauthorizedForcesLogout(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))
	f.backend.SetSightings(sighting("1", 4.35, 50.85))
	require.NoError(t, f.sync.Reload(context.Background()))

	token, _ := f.session.Token()
	f.backend.RevokeToken(token)

	err := f.sync.Reload(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, ok := f.session.Token()
	assert.False(t, ok)
	assert.Equal(t, 1, f.nav.count())
	assert.Len(t, f.view(t).Markers(), 1, "markers stay visible")

	// Signed out: further reloads are skipped.
	require.NoError(t, f.sync.Reload(context.Background()))
}

// slowSnapshot blocks its first Store until released.
type slowSnapshot struct {
	*cache.MemorySightingCache
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowSnapshot) Store(ctx context.Context, sightings []domain.Sighting) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.MemorySightingCache.Store(ctx, sightings)
}

func TestSnapshotWriteDoesNotBlockStatus(t *testing.T) {
	f := newFixture(t, fixtureOptions{loggedIn: true})
	require.NoError(t, f.mapc.Initialize(domain.DefaultCenter))
	f.backend.SetSightings(sighting("1", 4.35, 50.85))

	snap := &slowSnapshot{
		MemorySightingCache: cache.NewMemorySightingCache(),
		entered:             make(chan struct{}),
		release:             make(chan struct{}),
	}
	s := NewMarkerSynchronizer(f.session, f.backend, f.mapc, f.sched, SyncOptions{Snapshot: snap})

	done := make(chan error, 1)
	go func() { done <- s.Reload(context.Background()) }()
	<-snap.entered

	status := make(chan SyncStatus, 1)
	go func() { status <- s.Status() }()
	select {
	case st := <-status:
		assert.Equal(t, 1, st.Drawn)
	case <-time.After(time.Second):
		close(snap.release)
		t.Fatal("Status blocked behind the snapshot write")
	}

	close(snap.release)
	require.NoError(t, <-done)

	cached, err := snap.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}
