// Package geolocation provides device position sources.
package geolocation

import (
	"context"
	"ratlogger/internal/domain"
	"ratlogger/internal/ports"
)

// StaticProvider reports a fixed position, or ErrGeolocationUnavailable
// when none is configured.
type StaticProvider struct {
	pos *domain.Coordinates
}

func NewStaticProvider(pos *domain.Coordinates) *StaticProvider {
	return &StaticProvider{pos: pos}
}

func (p *StaticProvider) CurrentPosition(ctx context.Context, _ ports.PositionOptions) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, contextError(err)
	}
	if p.pos == nil {
		return domain.Coordinates{}, domain.ErrGeolocationUnavailable
	}
	return *p.pos, nil
}
