package services

import (
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/platform/schedule"
	"ratlogger/internal/ports"
	"sync"
	"time"
)

type MapOptions struct {
	SurfaceID     string
	Zoom          float64
	FlyToZoom     float64
	FlyToDuration time.Duration
	HighlightTTL  time.Duration
}

// MapController owns the single map view bound to a surface, the markers
// drawn on it and its click listener. No other component talks to the
// renderer.
type MapController struct {
	renderer ports.MapRenderer
	sched    schedule.Scheduler
	opts     MapOptions

	mu          sync.Mutex
	view        ports.MapView
	detachClick func()
	handler     func(domain.Coordinates)
	drawn       []domain.Marker
	highlights  map[string]schedule.Job
}

func NewMapController(renderer ports.MapRenderer, sched schedule.Scheduler, opts MapOptions) *MapController {
	if opts.Zoom == 0 {
		opts.Zoom = 13
	}
	if opts.FlyToZoom == 0 {
		opts.FlyToZoom = 16
	}
	if opts.HighlightTTL <= 0 {
		opts.HighlightTTL = 5 * time.Second
	}
	return &MapController{
		renderer:   renderer,
		sched:      sched,
		opts:       opts,
		highlights: make(map[string]schedule.Job),
	}
}

// Initialize creates the map view centered on center. It is a no-op when
// a view already exists.
func (c *MapController) Initialize(center domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view != nil {
		return nil
	}
	if err := center.Validate(); err != nil {
		return fmt.Errorf("initialize map: %w", err)
	}

	view, err := c.renderer.Create(c.opts.SurfaceID, center, c.opts.Zoom)
	if err != nil {
		return fmt.Errorf("initialize map: %w", err)
	}

	c.view = view
	c.detachClick = view.OnClick(c.dispatchClick)
	return nil
}

func (c *MapController) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view != nil
}

// OnClick sets the click handler, replacing any previous one.
func (c *MapController) OnClick(fn func(domain.Coordinates)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view == nil {
		return domain.ErrMapNotInitialized
	}
	c.handler = fn
	return nil
}

func (c *MapController) dispatchClick(at domain.Coordinates) {
	c.mu.Lock()
	fn := c.handler
	c.mu.Unlock()

	if fn != nil {
		fn(at)
	}
}

func (c *MapController) FlyTo(center domain.Coordinates, zoom float64, duration time.Duration) error {
	if err := center.Validate(); err != nil {
		return fmt.Errorf("fly to: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view == nil {
		return domain.ErrMapNotInitialized
	}
	c.view.FlyTo(center, zoom, duration)
	return nil
}

// ReplaceMarkers removes every drawn sighting marker and draws markers in
// their place. Highlights are left alone. It returns the number drawn.
func (c *MapController) ReplaceMarkers(markers []domain.Marker) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view == nil {
		return 0, domain.ErrMapNotInitialized
	}

	for _, m := range c.drawn {
		c.view.RemoveMarker(m.ID)
	}
	c.drawn = c.drawn[:0]

	var errs []error
	for _, m := range markers {
		if err := c.view.AddMarker(m); err != nil {
			errs = append(errs, err)
			continue
		}
		c.drawn = append(c.drawn, m)
	}

	if len(errs) > 0 {
		return len(c.drawn), fmt.Errorf("replace markers: %d of %d failed: %w", len(errs), len(markers), errors.Join(errs...))
	}
	return len(c.drawn), nil
}

// Markers returns the drawn sighting markers.
func (c *MapController) Markers() []domain.Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Marker(nil), c.drawn...)
}

// Highlight flies to at and drops a temporary marker there.
func (c *MapController) Highlight(at domain.Coordinates, popup string) error {
	if err := at.Validate(); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view == nil {
		return domain.ErrMapNotInitialized
	}

	c.view.FlyTo(at, c.opts.FlyToZoom, c.opts.FlyToDuration)

	m := domain.NewHighlightMarker(at, popup)
	if err := c.view.AddMarker(m); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}

	view := c.view
	c.highlights[m.ID] = c.sched.After(c.opts.HighlightTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.highlights[m.ID]; !ok || c.view != view {
			return
		}
		delete(c.highlights, m.ID)
		view.RemoveMarker(m.ID)
	})
	return nil
}

// Teardown releases the view, its listener and pending highlight timers.
// Safe to call repeatedly.
func (c *MapController) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, job := range c.highlights {
		job.Stop()
		delete(c.highlights, id)
	}

	if c.view == nil {
		return
	}
	if c.detachClick != nil {
		c.detachClick()
		c.detachClick = nil
	}
	c.handler = nil
	c.drawn = nil
	c.view.Remove()
	c.view = nil

	l := logging.Logger()
	l.Debug().Str("surface", c.opts.SurfaceID).Msg("map torn down")
}
