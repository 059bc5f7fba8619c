package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPendingReportReady(t *testing.T) {
	var nilReport *PendingReport
	if err := nilReport.Ready(); !errors.Is(err, ErrMissingCoordinates) {
		t.Fatalf("nil report: err = %v, want ErrMissingCoordinates", err)
	}

	p := &PendingReport{Source: SourceClickedLocation}
	if err := p.Ready(); !errors.Is(err, ErrMissingCoordinates) {
		t.Fatalf("no coordinates: err = %v, want ErrMissingCoordinates", err)
	}

	p.Coordinates = &Coordinates{Lon: 3.0, Lat: 48.0}
	if err := p.Ready(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ns := p.ToNewSighting()
	if ns.Coordinates != (Coordinates{Lon: 3.0, Lat: 48.0}) {
		t.Errorf("payload coordinates = %v", ns.Coordinates)
	}
}

func TestSessionConsistent(t *testing.T) {
	if !(Session{}).Consistent() {
		t.Errorf("empty session should be consistent")
	}
	if (Session{User: &User{Username: "remy"}}).Consistent() {
		t.Errorf("user without token must be inconsistent")
	}

	s := Session{Token: "abc", User: &User{Username: "remy"}}
	if !s.Consistent() || !s.Authenticated() {
		t.Errorf("validated session should be consistent and authenticated")
	}
	if s.WithoutUser().User != nil {
		t.Errorf("WithoutUser kept the user")
	}
}

func TestMarkersFromSightings(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	sightings := []Sighting{
		{ID: "1", Coordinates: Coordinates{Lon: 4.35, Lat: 50.85}, CreatedAt: created},
		{ID: "2", Coordinates: Coordinates{Lon: 2.15, Lat: 41.39}, CreatedAt: created},
	}

	markers := MarkersFromSightings(sightings)
	if len(markers) != 2 {
		t.Fatalf("got %d markers, want 2", len(markers))
	}

	for i, m := range markers {
		if m.SightingID != sightings[i].ID {
			t.Errorf("marker %d sighting = %q, want %q", i, m.SightingID, sightings[i].ID)
		}
		if m.Position != sightings[i].Coordinates {
			t.Errorf("marker %d position = %v, want %v", i, m.Position, sightings[i].Coordinates)
		}
		if m.Highlight {
			t.Errorf("marker %d should not be a highlight", i)
		}
		if !strings.HasPrefix(m.PopupContent, "Rat spotted!") {
			t.Errorf("marker %d popup = %q", i, m.PopupContent)
		}
	}

	if markers[0].ID == markers[1].ID {
		t.Errorf("marker handles must be unique")
	}
}
