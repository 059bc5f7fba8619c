package geolocation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"ratlogger/internal/domain"
	"ratlogger/internal/ports"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifProvider reads the GPS position recorded in a photo, so a picture
// taken on the spot can stand in for a live fix.
type ExifProvider struct {
	path string
}

func NewExifProvider(path string) *ExifProvider {
	return &ExifProvider{path: path}
}

func (p *ExifProvider) CurrentPosition(ctx context.Context, _ ports.PositionOptions) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, contextError(err)
	}

	f, err := os.Open(p.path)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("exif position: open %q: %v: %w", p.path, err, domain.ErrGeolocationUnavailable)
	}
	defer f.Close()

	return PositionFromExif(f)
}

// PhotoPosition extracts the GPS position from an in-memory photo.
func PhotoPosition(data []byte) (domain.Coordinates, error) {
	return PositionFromExif(bytes.NewReader(data))
}

func PositionFromExif(r io.Reader) (domain.Coordinates, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("exif position: decode: %v: %w", err, domain.ErrGeolocationUnavailable)
	}

	lat, lon, err := x.LatLong()
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("exif position: no gps tags: %v: %w", err, domain.ErrGeolocationUnavailable)
	}

	c := domain.Coordinates{Lon: lon, Lat: lat}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("exif position: %v: %w", err, domain.ErrGeolocationUnavailable)
	}
	return c, nil
}
