package services

import (
	"context"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/ports"
	"time"
)

// Resolves the device position with a bounded wait.
type GeolocationResolver struct {
	provider ports.GeolocationProvider
	fallback domain.Coordinates
	timeout  time.Duration
}

func NewGeolocationResolver(provider ports.GeolocationProvider, fallback domain.Coordinates, timeout time.Duration) *GeolocationResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GeolocationResolver{provider: provider, fallback: fallback, timeout: timeout}
}

// Resolve returns the device position, or the fallback when it cannot be
// determined in time. The second result reports whether the fallback was used.
func (r *GeolocationResolver) Resolve(ctx context.Context) (domain.Coordinates, bool) {
	pos, err := r.query(ctx, ports.PositionOptions{Timeout: r.timeout, MaximumAge: time.Minute})
	if err != nil {
		logging.Ctx(ctx).Info().Err(err).Str("fallback", r.fallback.String()).Msg("device position unavailable, using default center")
		return r.fallback, true
	}
	return pos, false
}

// Locate asks for a fresh high-accuracy fix. Cached positions are rejected.
func (r *GeolocationResolver) Locate(ctx context.Context) (domain.Coordinates, error) {
	pos, err := r.query(ctx, ports.PositionOptions{HighAccuracy: true, Timeout: r.timeout, MaximumAge: 0})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("locate device: %w", err)
	}
	return pos, nil
}

type positionResult struct {
	pos domain.Coordinates
	err error
}

// query never waits longer than the timeout, even if the provider ignores ctx.
func (r *GeolocationResolver) query(ctx context.Context, opts ports.PositionOptions) (domain.Coordinates, error) {
	if r.provider == nil {
		return domain.Coordinates{}, domain.ErrGeolocationUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	done := make(chan positionResult, 1)
	go func() {
		pos, err := r.provider.CurrentPosition(ctx, opts)
		done <- positionResult{pos: pos, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return domain.Coordinates{}, res.err
		}
		if err := res.pos.Validate(); err != nil {
			return domain.Coordinates{}, fmt.Errorf("%v: %w", err, domain.ErrGeolocationUnavailable)
		}
		return res.pos, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return domain.Coordinates{}, domain.ErrGeolocationTimeout
		}
		return domain.Coordinates{}, ctx.Err()
	}
}
