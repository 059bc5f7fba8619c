package ports

import (
	"ratlogger/internal/domain"
	"time"
)

// Boundary to a concrete mapping SDK. Only the map controller calls it.
type MapRenderer interface {
	// Bind a new map view to the named surface.
	// Returns domain.ErrSurfaceMissing when the surface does not exist and
	// domain.ErrSurfaceBound while another live view holds it.
	Create(surfaceID string, center domain.Coordinates, zoom float64) (MapView, error)
}

// A live map bound to one surface.
type MapView interface {
	AddMarker(m domain.Marker) error
	RemoveMarker(id string)
	// Animate the camera; it must end exactly at center and zoom.
	FlyTo(center domain.Coordinates, zoom float64, duration time.Duration)
	// Register a click listener and return a function detaching it.
	OnClick(fn func(domain.Coordinates)) (detach func())
	// Release the view and everything attached to it.
	Remove()
}
