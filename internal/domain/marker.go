package domain

import "github.com/google/uuid"

// Client-side visual representation of a Sighting, or a transient
// highlight when SightingID is empty.
// Markers are owned by the map controller; other components build them
// and hand them off without keeping references.
type Marker struct {
	ID           string
	SightingID   string
	Position     Coordinates
	PopupContent string
	Highlight    bool
}

func NewSightingMarker(s Sighting) Marker {
	return Marker{
		ID:           uuid.NewString(),
		SightingID:   s.ID,
		Position:     s.Coordinates,
		PopupContent: s.PopupText(),
	}
}

func NewHighlightMarker(at Coordinates, popup string) Marker {
	return Marker{
		ID:           uuid.NewString(),
		Position:     at,
		PopupContent: popup,
		Highlight:    true,
	}
}

// Build one marker per sighting, preserving order.
func MarkersFromSightings(sightings []Sighting) []Marker {
	out := make([]Marker, 0, len(sightings))
	for _, s := range sightings {
		out = append(out, NewSightingMarker(s))
	}
	return out
}
