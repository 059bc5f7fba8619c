// Package mapsurface is a headless map SDK: it keeps markers, camera and
// click listeners in memory so a remote frontend (or a test) can drive
// the client through the local control surface.
package mapsurface

import (
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/ports"
	"sync"
	"time"
)

var ErrDuplicateMarker = errors.New("marker already on map")

// One recorded camera animation.
type Flight struct {
	Center   domain.Coordinates
	Zoom     float64
	Duration time.Duration
}

type MemoryRenderer struct {
	mu       sync.Mutex
	surfaces map[string]*MemoryView
}

func NewMemoryRenderer(surfaceIDs ...string) *MemoryRenderer {
	r := &MemoryRenderer{surfaces: make(map[string]*MemoryView, len(surfaceIDs))}
	for _, id := range surfaceIDs {
		r.surfaces[id] = nil
	}
	return r
}

// AddSurface makes id available to Create.
func (r *MemoryRenderer) AddSurface(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surfaces[id]; !ok {
		r.surfaces[id] = nil
	}
}

// RemoveSurface drops id and releases any view bound to it.
func (r *MemoryRenderer) RemoveSurface(id string) {
	r.mu.Lock()
	v := r.surfaces[id]
	delete(r.surfaces, id)
	r.mu.Unlock()

	if v != nil {
		v.Remove()
	}
}

func (r *MemoryRenderer) Create(surfaceID string, center domain.Coordinates, zoom float64) (ports.MapView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bound, ok := r.surfaces[surfaceID]
	if !ok {
		return nil, fmt.Errorf("create map on %q: %w", surfaceID, domain.ErrSurfaceMissing)
	}
	if bound != nil && !bound.Removed() {
		return nil, fmt.Errorf("create map on %q: %w", surfaceID, domain.ErrSurfaceBound)
	}

	v := &MemoryView{
		center:    center,
		zoom:      zoom,
		markers:   make(map[string]domain.Marker),
		listeners: make(map[int]func(domain.Coordinates)),
	}
	r.surfaces[surfaceID] = v
	return v, nil
}

// View returns the live view on surfaceID, or nil.
func (r *MemoryRenderer) View(surfaceID string) *MemoryView {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.surfaces[surfaceID]
	if v == nil || v.Removed() {
		return nil
	}
	return v
}

// Click dispatches a map click on surfaceID.
func (r *MemoryRenderer) Click(surfaceID string, at domain.Coordinates) error {
	v := r.View(surfaceID)
	if v == nil {
		return fmt.Errorf("click on %q: %w", surfaceID, domain.ErrMapNotInitialized)
	}
	v.Click(at)
	return nil
}

// MemoryView implements ports.MapView.
type MemoryView struct {
	mu        sync.Mutex
	center    domain.Coordinates
	zoom      float64
	markers   map[string]domain.Marker
	order     []string
	listeners map[int]func(domain.Coordinates)
	nextID    int
	flights   []Flight
	removed   bool
}

func (v *MemoryView) AddMarker(m domain.Marker) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.removed {
		return fmt.Errorf("add marker %s: %w", m.ID, domain.ErrMapNotInitialized)
	}
	if _, ok := v.markers[m.ID]; ok {
		return fmt.Errorf("add marker %s: %w", m.ID, ErrDuplicateMarker)
	}
	v.markers[m.ID] = m
	v.order = append(v.order, m.ID)
	return nil
}

func (v *MemoryView) RemoveMarker(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.markers[id]; !ok {
		return
	}
	delete(v.markers, id)
	for i, oid := range v.order {
		if oid == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

// FlyTo lands the camera immediately; the flight is recorded.
func (v *MemoryView) FlyTo(center domain.Coordinates, zoom float64, duration time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.removed {
		return
	}
	v.center = center
	v.zoom = zoom
	v.flights = append(v.flights, Flight{Center: center, Zoom: zoom, Duration: duration})
}

func (v *MemoryView) OnClick(fn func(domain.Coordinates)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.removed {
		return func() {}
	}
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn

	return func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	}
}

func (v *MemoryView) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.removed = true
	v.markers = make(map[string]domain.Marker)
	v.order = nil
	v.listeners = make(map[int]func(domain.Coordinates))
}

// Click invokes every attached listener outside the view lock.
func (v *MemoryView) Click(at domain.Coordinates) int {
	v.mu.Lock()
	fns := make([]func(domain.Coordinates), 0, len(v.listeners))
	for i := 0; i < v.nextID; i++ {
		if fn, ok := v.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(at)
	}
	return len(fns)
}

// Markers returns the drawn markers in insertion order.
func (v *MemoryView) Markers() []domain.Marker {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]domain.Marker, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.markers[id])
	}
	return out
}

func (v *MemoryView) Camera() (domain.Coordinates, float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.center, v.zoom
}

func (v *MemoryView) Flights() []Flight {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Flight(nil), v.flights...)
}

func (v *MemoryView) ListenerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}

func (v *MemoryView) Removed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.removed
}
