package geolocation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/obs"
	"ratlogger/internal/ports"
	"strings"

	json "github.com/goccy/go-json"
)

// HTTPProvider asks a position service (ip-api style) for the device location.
// The response must carry lat/lon or latitude/longitude.
type HTTPProvider struct {
	session *http.Client
	url     string
}

type positionResponse struct {
	Status    string   `json:"status"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func NewHTTPProvider(url string, client *http.Client) (*HTTPProvider, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("geolocation url is empty")
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPProvider{session: client, url: url}, nil
}

func (p *HTTPProvider) CurrentPosition(ctx context.Context, opts ports.PositionOptions) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "geolocation.http")(&err)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if opts.MaximumAge == 0 {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := p.session.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Coordinates{}, contextError(ctxErr)
		}
		return domain.Coordinates{}, fmt.Errorf("geolocation request: %v: %w", err, domain.ErrGeolocationUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Coordinates{}, fmt.Errorf("geolocation: status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(b)), domain.ErrGeolocationUnavailable)
	}

	var decoded positionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geolocation: decode: %v: %w", err, domain.ErrGeolocationUnavailable)
	}

	return decoded.coordinates()
}

func (r positionResponse) coordinates() (domain.Coordinates, error) {
	if r.Status != "" && r.Status != "success" {
		return domain.Coordinates{}, fmt.Errorf("geolocation: status %q: %w", r.Status, domain.ErrGeolocationUnavailable)
	}

	lat, lon := r.Lat, r.Lon
	if lat == nil || lon == nil {
		lat, lon = r.Latitude, r.Longitude
	}
	if lat == nil || lon == nil {
		return domain.Coordinates{}, fmt.Errorf("geolocation: response has no position: %w", domain.ErrGeolocationUnavailable)
	}

	c := domain.Coordinates{Lon: *lon, Lat: *lat}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geolocation: %v: %w", err, domain.ErrGeolocationUnavailable)
	}
	return c, nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrGeolocationTimeout
	}
	return err
}
