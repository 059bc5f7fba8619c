package domain

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Mean Earth radius used to turn s2 angles into ground distance.
const earthRadiusMeters = 6371008.8

// Map center used when the device position cannot be resolved (Brussels).
var DefaultCenter = Coordinates{Lon: 4.3517, Lat: 50.8503}

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Build coordinates from a [lon, lat] pair as found in GeoJSON.
func CoordinatesFromList(pair []float64) (Coordinates, error) {
	if len(pair) != 2 {
		return Coordinates{}, fmt.Errorf("coordinates from list: want 2 values, got %d: %w", len(pair), ErrInvalidCoordinates)
	}

	c := Coordinates{Lon: pair[0], Lat: pair[1]}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}

	return c, nil
}

// Validate checks the pair is finite and within WGS84 degree bounds.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lon) || math.IsNaN(c.Lat) || math.IsInf(c.Lon, 0) || math.IsInf(c.Lat, 0) {
		return fmt.Errorf("coordinates (%v, %v) are not finite: %w", c.Lon, c.Lat, ErrInvalidCoordinates)
	}

	if !c.LatLng().IsValid() {
		return fmt.Errorf("coordinates (%v, %v) out of range: %w", c.Lon, c.Lat, ErrInvalidCoordinates)
	}

	return nil
}

func (c Coordinates) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lon)
}

// Great-circle distance in meters.
func (c Coordinates) DistanceMeters(other Coordinates) float64 {
	return c.LatLng().Distance(other.LatLng()).Radians() * earthRadiusMeters
}

// Report whether other lies within radiusMeters of c.
func (c Coordinates) Within(other Coordinates, radiusMeters float64) bool {
	return c.LatLng().Distance(other.LatLng()) <= s1.Angle(radiusMeters/earthRadiusMeters)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}
