package services

import (
	"errors"
	"ratlogger/internal/adapters/mapsurface"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/schedule"
	"testing"
	"time"
)

func newController(r *mapsurface.MemoryRenderer, sched schedule.Scheduler) *MapController {
	return NewMapController(r, sched, MapOptions{SurfaceID: surfaceID, HighlightTTL: 5 * time.Second})
}

func TestInitializeRequiresSurface(t *testing.T) {
	c := newController(mapsurface.NewMemoryRenderer(), schedule.NewManualScheduler())
	if err := c.Initialize(domain.DefaultCenter); !errors.Is(err, domain.ErrSurfaceMissing) {
		t.Fatalf("Initialize() err = %v, want ErrSurfaceMissing", err)
	}
	if c.Initialized() {
		t.Fatalf("controller should not be initialized")
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	r := mapsurface.NewMemoryRenderer(surfaceID)
	c := newController(r, schedule.NewManualScheduler())
	defer c.Teardown()

	if err := c.Initialize(domain.DefaultCenter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := r.View(surfaceID)

	if err := c.Initialize(domain.Coordinates{Lon: 1, Lat: 1}); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if r.View(surfaceID) != first {
		t.Fatalf("second Initialize created another view")
	}
	if center, zoom := first.Camera(); center != domain.DefaultCenter || zoom != 13 {
		t.Fatalf("camera = %v@%v, want default center @13", center, zoom)
	}
}

func TestSecondControllerCannotTakeBoundSurface(t *testing.T) {
	r := mapsurface.NewMemoryRenderer(surfaceID)
	a := newController(r, schedule.NewManualScheduler())
	b := newController(r, schedule.NewManualScheduler())
	defer a.Teardown()
	defer b.Teardown()

	if err := a.Initialize(domain.DefaultCenter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clicks := 0
	if err := a.OnClick(func(domain.Coordinates) { clicks++ }); err != nil {
		t.Fatalf("OnClick: %v", err)
	}

	if err := b.Initialize(domain.DefaultCenter); !errors.Is(err, domain.ErrSurfaceBound) {
		t.Fatalf("second controller Initialize() err = %v, want ErrSurfaceBound", err)
	}
	if b.Initialized() {
		t.Fatalf("second controller should not be initialized")
	}

	if err := r.Click(surfaceID, domain.Coordinates{Lon: 3, Lat: 48}); err != nil {
		t.Fatalf("click: %v", err)
	}
	if clicks != 1 {
		t.Fatalf("clicks = %d, want 1", clicks)
	}
}

func TestFlyToRequiresMapAndLandsExactly(t *testing.T) {
	r := mapsurface.NewMemoryRenderer(surfaceID)
	c := newController(r, schedule.NewManualScheduler())
	defer c.Teardown()

	target := domain.Coordinates{Lon: 2.15, Lat: 41.39}
	if err := c.FlyTo(target, 15, time.Second); !errors.Is(err, domain.ErrMapNotInitialized) {
		t.Fatalf("FlyTo before init err = %v", err)
	}

	if err := c.Initialize(domain.DefaultCenter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.FlyTo(target, 15, time.Second); err != nil {
		t.Fatalf("FlyTo: %v", err)
	}
	if center, zoom := r.View(surfaceID).Camera(); center != target || zoom != 15 {
		t.Fatalf("camera = %v@%v, want %v@15", center, zoom, target)
	}
}

func TestOnClickReplacesHandler(t *testing.T) {
	r := mapsurface.NewMemoryRenderer(surfaceID)
	c := newController(r, schedule.NewManualScheduler())
	defer c.Teardown()

	if err := c.OnClick(func(domain.Coordinates) {}); !errors.Is(err, domain.ErrMapNotInitialized) {
		t.Fatalf("OnClick before init err = %v", err)
	}
	if err := c.Initialize(domain.DefaultCenter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var first, second int
	_ = c.OnClick(func(domain.Coordinates) { first++ })
	_ = c.OnClick(func(domain.Coordinates) { second++ })

	if err := r.Click(surfaceID, domain.Coordinates{Lon: 3, Lat: 48}); err != nil {
		t.Fatalf("click: %v", err)
	}
	if first != 0 || second != 1 {
		t.Fatalf("first=%d second=%d, want 0 and 1", first, second)
	}
	if n := r.View(surfaceID).ListenerCount(); n != 1 {
		t.Fatalf("listeners on view = %d, want 1", n)
	}
}

func TestTeardownTwice(t *testing.T) {
	r := mapsurface.NewMemoryRenderer(surfaceID)
	c := newController(r, schedule.NewManualScheduler())

	if err := c.Initialize(domain.DefaultCenter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view := r.View(surfaceID)
	_ = c.OnClick(func(domain.Coordinates) {})
	if err := c.Highlight(domain.Coordinates{Lon: 3, Lat: 48}, "here"); err != nil {
		t.Fatalf("highlight: %v", err)
	}

	c.Teardown()
	c.Teardown()

	if !view.Removed() {
		t.Fatalf("view not removed")
	}
	if n := view.ListenerCount(); n != 0 {
		t.Fatalf("dangling listeners: %d", n)
	}
	if c.Initialized() {
		t.Fatalf("controller still initialized")
	}
	if c.highlights == nil || len(c.highlights) != 0 {
		t.Fatalf("highlight timers not cancelled")
	}
	if err := c.FlyTo(domain.DefaultCenter, 13, 0); !errors.Is(err, domain.ErrMapNotInitialized) {
		t.Fatalf("FlyTo after teardown err = %v", err)
	}

	// The surface can be reused.
	if err := c.Initialize(domain.DefaultCenter); err != nil {
		t.Fatalf("re-initialize: %v", err)
	}
	c.Teardown()
}

func TestHighlightExpiresAfterTTL(t *testing.T) {
	r := mapsurface.NewMemoryRenderer(surfaceID)
	sched := schedule.NewManualScheduler()
	c := newController(r, sched)
	defer c.Teardown()

	if err := c.Initialize(domain.DefaultCenter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := domain.Coordinates{Lon: 3, Lat: 48}
	if err := c.Highlight(at, "Rat spotted!"); err != nil {
		t.Fatalf("highlight: %v", err)
	}

	view := r.View(surfaceID)
	if center, zoom := view.Camera(); center != at || zoom != 16 {
		t.Fatalf("camera = %v@%v, want %v@16", center, zoom, at)
	}
	markers := view.Markers()
	if len(markers) != 1 || !markers[0].Highlight || markers[0].Position != at {
		t.Fatalf("markers = %+v, want one highlight at %v", markers, at)
	}

	// Reconciliation leaves highlights in place.
	if _, err := c.ReplaceMarkers(nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(view.Markers()) != 1 {
		t.Fatalf("reconciliation removed the highlight")
	}

	sched.Advance(4900 * time.Millisecond)
	if len(view.Markers()) != 1 {
		t.Fatalf("highlight removed early")
	}
	sched.Advance(100 * time.Millisecond)
	if len(view.Markers()) != 0 {
		t.Fatalf("highlight still drawn after 5s: %+v", view.Markers())
	}
}

func TestReplaceMarkersIsFullReplace(t *testing.T) {
	r := mapsurface.NewMemoryRenderer(surfaceID)
	c := newController(r, schedule.NewManualScheduler())
	defer c.Teardown()

	if _, err := c.ReplaceMarkers(nil); !errors.Is(err, domain.ErrMapNotInitialized) {
		t.Fatalf("ReplaceMarkers before init err = %v", err)
	}
	if err := c.Initialize(domain.DefaultCenter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := domain.MarkersFromSightings([]domain.Sighting{sighting("1", 1, 1), sighting("2", 2, 2)})
	if n, err := c.ReplaceMarkers(first); err != nil || n != 2 {
		t.Fatalf("first replace = %d, %v", n, err)
	}

	second := domain.MarkersFromSightings([]domain.Sighting{sighting("3", 3, 3)})
	if n, err := c.ReplaceMarkers(second); err != nil || n != 1 {
		t.Fatalf("second replace = %d, %v", n, err)
	}

	got := r.View(surfaceID).Markers()
	if len(got) != 1 || got[0].SightingID != "3" {
		t.Fatalf("drawn = %+v, want only sighting 3", got)
	}
}
