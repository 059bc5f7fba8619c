package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/platform/obs"
	"strconv"

	json "github.com/goccy/go-json"
)

const (
	sightingsPath      = "/api/sightings/"
	mySightingsPath    = "/api/sightings/my/"
	sightingsStatsPath = "/api/sightings/stats/"
)

func (c *Client) ListSightings(ctx context.Context, token string) (_ []domain.Sighting, err error) {
	defer obs.Time(ctx, "backend.ListSightings")(&err)

	return c.listSightings(ctx, sightingsPath, token, nil)
}

func (c *Client) ListMySightings(ctx context.Context, token string) (_ []domain.Sighting, err error) {
	defer obs.Time(ctx, "backend.ListMySightings")(&err)

	return c.listSightings(ctx, mySightingsPath, token, nil)
}

// ListNearbySightings relies on the backend's radius filter (5 km).
func (c *Client) ListNearbySightings(ctx context.Context, token string, center domain.Coordinates) (_ []domain.Sighting, err error) {
	defer obs.Time(ctx, "backend.ListNearbySightings")(&err)

	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("list nearby sightings: %w", err)
	}

	query := map[string]string{
		"latitude":  strconv.FormatFloat(center.Lat, 'f', -1, 64),
		"longitude": strconv.FormatFloat(center.Lon, 'f', -1, 64),
	}
	return c.listSightings(ctx, sightingsPath, token, query)
}

// listSightings drops entries whose geometry cannot be drawn, logging each one.
func (c *Client) listSightings(ctx context.Context, path string, token string, query map[string]string) ([]domain.Sighting, error) {
	body, err := c.getBody(ctx, path, token, query)
	if err != nil {
		return nil, fmt.Errorf("list sightings %s: %w", path, err)
	}

	items, err := splitSightings(body)
	if err != nil {
		return nil, fmt.Errorf("list sightings %s: %w", path, err)
	}

	out := make([]domain.Sighting, 0, len(items))
	for i, raw := range items {
		var w sightingWire
		if err := json.Unmarshal(raw, &w); err != nil {
			logging.Ctx(ctx).Warn().Int("index", i).Err(err).Msg("dropping undecodable sighting")
			continue
		}

		s, err := w.toDomain()
		if err != nil {
			logging.Ctx(ctx).Warn().Int("index", i).Err(err).Msg("dropping malformed sighting")
			continue
		}
		out = append(out, s)
	}

	return out, nil
}

// CreateSighting posts a multipart report; it is never retried.
func (c *Client) CreateSighting(ctx context.Context, token string, s domain.NewSighting) (_ domain.Sighting, err error) {
	defer obs.Time(ctx, "backend.CreateSighting")(&err)

	if err := s.Coordinates.Validate(); err != nil {
		return domain.Sighting{}, fmt.Errorf("create sighting: %w", err)
	}

	body, contentType, err := encodeSighting(s)
	if err != nil {
		return domain.Sighting{}, fmt.Errorf("create sighting: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, sightingsPath, token, bytes.NewReader(body), contentType)
	if err != nil {
		return domain.Sighting{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return domain.Sighting{}, fmt.Errorf("create sighting: %w", c.authFailure(ctx, token, err))
	}
	defer resp.Body.Close()

	var w sightingWire
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return domain.Sighting{}, fmt.Errorf("create sighting: decode: %v: %w", err, domain.ErrMalformedResponse)
	}

	created, err := w.toDomain()
	if err != nil {
		return domain.Sighting{}, fmt.Errorf("create sighting: %w", err)
	}
	return created, nil
}

func encodeSighting(s domain.NewSighting) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"longitude", strconv.FormatFloat(s.Coordinates.Lon, 'f', -1, 64)},
		{"latitude", strconv.FormatFloat(s.Coordinates.Lat, 'f', -1, 64)},
		{"description", s.Description},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if s.Photo != nil && len(s.Photo.Data) > 0 {
		name := s.Photo.Filename
		if name == "" {
			name = "photo.jpg"
		}
		ct := s.Photo.ContentType
		if ct == "" {
			ct = http.DetectContentType(s.Photo.Data)
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, name))
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create photo part: %w", err)
		}
		if _, err := part.Write(s.Photo.Data); err != nil {
			return nil, "", fmt.Errorf("write photo: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (c *Client) Stats(ctx context.Context, token string) (_ domain.Stats, err error) {
	defer obs.Time(ctx, "backend.Stats")(&err)

	var stats domain.Stats
	if err := c.getJSON(ctx, sightingsStatsPath, token, &stats); err != nil {
		return domain.Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}
