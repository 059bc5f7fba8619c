package geolocation

import (
	"context"
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/ports"
)

// ChainProvider returns the first position any provider can produce.
// It stops early when the context expires.
type ChainProvider struct {
	providers []ports.GeolocationProvider
}

func NewChainProvider(providers ...ports.GeolocationProvider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

func (c *ChainProvider) CurrentPosition(ctx context.Context, opts ports.PositionOptions) (domain.Coordinates, error) {
	var errs []error
	for i, p := range c.providers {
		pos, err := p.CurrentPosition(ctx, opts)
		if err == nil {
			return pos, nil
		}
		logging.Ctx(ctx).Debug().Int("provider", i).Err(err).Msg("geolocation provider failed")
		errs = append(errs, err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Coordinates{}, contextError(ctxErr)
		}
	}

	if len(errs) == 0 {
		return domain.Coordinates{}, domain.ErrGeolocationUnavailable
	}
	joined := errors.Join(errs...)
	if errors.Is(joined, domain.ErrGeolocationTimeout) {
		return domain.Coordinates{}, fmt.Errorf("all geolocation providers failed: %w", joined)
	}
	return domain.Coordinates{}, fmt.Errorf("all geolocation providers failed: %w: %w", joined, domain.ErrGeolocationUnavailable)
}
