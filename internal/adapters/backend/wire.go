package backend

import (
	"bytes"
	"fmt"
	"ratlogger/internal/domain"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	geojson "github.com/paulmach/go.geojson"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *domain.User `json:"user"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type sightingWire struct {
	ID          json.RawMessage   `json:"id"`
	Location    *geojson.Geometry `json:"location"`
	Description string            `json:"description"`
	CreatedAt   string            `json:"created_at"`
}

type pagedSightings struct {
	Results []json.RawMessage `json:"results"`
}

// Layouts accepted for created_at; the backend may omit the zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (w sightingWire) toDomain() (domain.Sighting, error) {
	id, err := decodeID(w.ID)
	if err != nil {
		return domain.Sighting{}, err
	}

	if w.Location == nil || !w.Location.IsPoint() {
		return domain.Sighting{}, fmt.Errorf("sighting %s: location is not a point: %w", id, domain.ErrMalformedResponse)
	}

	coords, err := domain.CoordinatesFromList(w.Location.Point)
	if err != nil {
		return domain.Sighting{}, fmt.Errorf("sighting %s: %w", id, err)
	}

	created, err := parseTimestamp(w.CreatedAt)
	if err != nil {
		return domain.Sighting{}, fmt.Errorf("sighting %s: %w", id, err)
	}

	return domain.Sighting{
		ID:          id,
		Coordinates: coords,
		Description: w.Description,
		CreatedAt:   created,
	}, nil
}

// decodeID accepts a JSON number or string and returns it as an opaque string.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("sighting id missing: %w", domain.ErrMalformedResponse)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", fmt.Errorf("sighting id %s: %w", raw, domain.ErrMalformedResponse)
		}
		return s, nil
	}

	if _, err := strconv.ParseFloat(string(raw), 64); err != nil {
		return "", fmt.Errorf("sighting id %s: %w", raw, domain.ErrMalformedResponse)
	}
	return string(raw), nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("created_at %q: %w", s, domain.ErrMalformedResponse)
}

// splitSightings accepts either a bare array or a paginated {"results": [...]} envelope.
func splitSightings(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var page pagedSightings
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode sightings page: %v: %w", err, domain.ErrMalformedResponse)
		}
		return page.Results, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode sightings: %v: %w", err, domain.ErrMalformedResponse)
	}
	return items, nil
}
