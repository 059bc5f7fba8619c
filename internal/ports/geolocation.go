package ports

import (
	"context"
	"ratlogger/internal/domain"
	"time"
)

// Options for a one-shot position query.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	// Zero rejects any cached fix.
	MaximumAge time.Duration
}

// Contract for device position lookups.
type GeolocationProvider interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (domain.Coordinates, error)
}
