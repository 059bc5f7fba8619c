package services

import (
	"context"
	"ratlogger/internal/adapters/geolocation"
	"ratlogger/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUsesDevicePosition(t *testing.T) {
	device := domain.Coordinates{Lon: 2.35, Lat: 48.85}
	r := NewGeolocationResolver(geolocation.NewStaticProvider(&device), domain.DefaultCenter, time.Second)

	pos, fallback := r.Resolve(context.Background())
	assert.False(t, fallback)
	assert.Equal(t, device, pos)
}

func TestResolveFallsBack(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		r := NewGeolocationResolver(geolocation.NewStaticProvider(nil), domain.DefaultCenter, time.Second)
		pos, fallback := r.Resolve(context.Background())
		assert.True(t, fallback)
		assert.Equal(t, domain.DefaultCenter, pos)
	})

	t.Run("invalid fix", func(t *testing.T) {
		bad := domain.Coordinates{Lon: 0, Lat: 123}
		r := NewGeolocationResolver(geolocation.NewStaticProvider(&bad), domain.DefaultCenter, time.Second)
		pos, fallback := r.Resolve(context.Background())
		assert.True(t, fallback)
		assert.Equal(t, domain.DefaultCenter, pos)
	})

	t.Run("no provider", func(t *testing.T) {
		r := NewGeolocationResolver(nil, domain.DefaultCenter, time.Second)
		_, fallback := r.Resolve(context.Background())
		assert.True(t, fallback)
	})

	t.Run("provider never answers", func(t *testing.T) {
		p := &blockingProvider{unblock: make(chan struct{})}
		t.Cleanup(func() { close(p.unblock) })

		r := NewGeolocationResolver(p, domain.DefaultCenter, 30*time.Millisecond)
		pos, fallback := r.Resolve(context.Background())
		assert.True(t, fallback)
		assert.Equal(t, domain.DefaultCenter, pos)
	})
}

func TestLocateTimesOut(t *testing.T) {
	p := &blockingProvider{unblock: make(chan struct{})}
	t.Cleanup(func() { close(p.unblock) })

	r := NewGeolocationResolver(p, domain.DefaultCenter, 30*time.Millisecond)
	_, err := r.Locate(context.Background())
	require.ErrorIs(t, err, domain.ErrGeolocationTimeout)
}

func TestMapScreenOpenAndClose(t *testing.T) {
	device := domain.Coordinates{Lon: 2.35, Lat: 48.85}
	f := newFixture(t, fixtureOptions{loggedIn: true, device: &device})
	f.backend.SetSightings(sighting("1", 2.35, 48.86))
	ctx := context.Background()

	require.NoError(t, f.screen.Open(ctx))
	v := f.view(t)
	center, _ := v.Camera()
	assert.Equal(t, device, center)
	assert.Len(t, v.Markers(), 1)
	assert.True(t, f.sync.Status().Running)

	require.NoError(t, f.screen.ViewOnMap(sighting("1", 2.35, 48.86)))
	assert.Len(t, v.Markers(), 2)

	f.screen.Close()
	assert.False(t, f.sync.Status().Running)
	assert.Nil(t, f.renderer.View(surfaceID))
	assert.True(t, v.Removed())

	f.screen.Close()
}
