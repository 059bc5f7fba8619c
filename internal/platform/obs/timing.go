package obs

import (
	"context"
	"ratlogger/internal/platform/logging"
	"time"
)

// Time logs the duration of op once the returned func is called.
//
//	defer obs.Time(ctx, "backend.ListSightings")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)
		l := logging.Ctx(ctx)

		if errp != nil && *errp != nil {
			l.Warn().Str("op", name).Int64("dur_ms", dur.Milliseconds()).Err(*errp).Msg("op failed")
			return
		}
		l.Debug().Str("op", name).Int64("dur_ms", dur.Milliseconds()).Msg("op done")
	}
}
