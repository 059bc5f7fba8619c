package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinates
		wantErr bool
	}{
		{name: "brussels", c: Coordinates{Lon: 4.35, Lat: 50.85}},
		{name: "antimeridian", c: Coordinates{Lon: 180, Lat: 0}},
		{name: "pole", c: Coordinates{Lon: 0, Lat: -90}},
		{name: "lat out of range", c: Coordinates{Lon: 2.15, Lat: 91}, wantErr: true},
		{name: "lon out of range", c: Coordinates{Lon: -180.5, Lat: 10}, wantErr: true},
		{name: "nan", c: Coordinates{Lon: math.NaN(), Lat: 10}, wantErr: true},
		{name: "inf", c: Coordinates{Lon: 1, Lat: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCoordinates) {
					t.Fatalf("Validate() = %v, want ErrInvalidCoordinates", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCoordinatesFromList(t *testing.T) {
	c, err := CoordinatesFromList([]float64{2.15, 41.39})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lon != 2.15 || c.Lat != 41.39 {
		t.Fatalf("got %v, want lon=2.15 lat=41.39", c)
	}

	got := c.CoordsToList()
	if len(got) != 2 || got[0] != 2.15 || got[1] != 41.39 {
		t.Fatalf("CoordsToList() = %v", got)
	}

	if _, err := CoordinatesFromList([]float64{1, 2, 3}); !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("3-tuple error = %v, want ErrInvalidCoordinates", err)
	}
}

func TestCoordinatesDistance(t *testing.T) {
	brussels := Coordinates{Lon: 4.3517, Lat: 50.8503}
	antwerp := Coordinates{Lon: 4.4025, Lat: 51.2194}

	d := brussels.DistanceMeters(antwerp)
	// Roughly 41 km apart.
	if d < 40000 || d > 42500 {
		t.Fatalf("distance = %.0f m, want ~41 km", d)
	}

	if !brussels.Within(antwerp, 50000) {
		t.Errorf("antwerp should be within 50 km")
	}
	if brussels.Within(antwerp, 5000) {
		t.Errorf("antwerp should not be within 5 km")
	}
	if brussels.DistanceMeters(brussels) != 0 {
		t.Errorf("distance to self = %v, want 0", brussels.DistanceMeters(brussels))
	}
}
