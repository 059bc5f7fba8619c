package domain

import (
	"fmt"
	"time"
)

// Represents a rodent report recorded by the backend.
// The backend is the only source of truth for sightings; the client
// never mutates one after it has been fetched.
type Sighting struct {
	ID          string
	Coordinates Coordinates
	Description string
	CreatedAt   time.Time
}

// Popup text shown when the sighting's marker is opened.
func (s Sighting) PopupText() string {
	return fmt.Sprintf("Rat spotted!\nReported: %s", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}

// Data sent to the backend to create a sighting.
type NewSighting struct {
	Coordinates Coordinates
	Description string
	Photo       *Photo
}

// Optional picture attached to a report.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}
