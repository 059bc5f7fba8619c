package services

import (
	"context"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/platform/metrics"
	"ratlogger/internal/platform/schedule"
	"ratlogger/internal/ports"
	"sync"
	"sync/atomic"
	"time"
)

// Draw primitives the synchronizer needs from the map controller.
type MarkerSurface interface {
	Initialized() bool
	ReplaceMarkers(markers []domain.Marker) (int, error)
}

// Outcome of the most recent reload, for status reporting.
type SyncStatus struct {
	Running     bool
	Applied     uint64
	Drawn       int
	LastSuccess time.Time
	LastError   string
}

// MarkerSynchronizer keeps the drawn markers equal to the backend's
// sighting set.
//
// Each reload takes a generation number when issued and its result is
// drawn only if no newer reload has been drawn already, so a slow stale
// fetch never overwrites fresher data.
type MarkerSynchronizer struct {
	session  ports.SessionHandle
	lister   ports.SightingLister
	surface  MarkerSurface
	snapshot ports.SnapshotCache
	sched    schedule.Scheduler
	interval time.Duration
	metrics  *metrics.Metrics

	issued atomic.Uint64

	mu      sync.Mutex
	applied uint64
	job     schedule.Job
	status  SyncStatus

	// Serializes snapshot writes outside mu.
	snapMu sync.Mutex
	stored uint64
}

type SyncOptions struct {
	Interval time.Duration
	// Optional; successful fetches are written here.
	Snapshot ports.SnapshotCache
	// Optional; defaults to unregistered collectors.
	Metrics *metrics.Metrics
}

func NewMarkerSynchronizer(
	session ports.SessionHandle,
	lister ports.SightingLister,
	surface MarkerSurface,
	sched schedule.Scheduler,
	opts SyncOptions,
) *MarkerSynchronizer {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	return &MarkerSynchronizer{
		session:  session,
		lister:   lister,
		surface:  surface,
		snapshot: opts.Snapshot,
		sched:    sched,
		interval: opts.Interval,
		metrics:  opts.Metrics,
	}
}

// Reload fetches the sightings and redraws every marker.
// Without a token or before the map exists it does nothing. On failure the
// drawn markers are kept and the error is returned.
func (s *MarkerSynchronizer) Reload(ctx context.Context) error {
	token, ok := s.session.Token()
	if !ok {
		s.metrics.Reloads.WithLabelValues(metrics.ReloadSkipped).Inc()
		return nil
	}
	if !s.surface.Initialized() {
		s.metrics.Reloads.WithLabelValues(metrics.ReloadSkipped).Inc()
		return nil
	}

	gen := s.issued.Add(1)
	log := logging.Ctx(ctx).With().Uint64("gen", gen).Logger()

	start := time.Now()
	sightings, err := s.lister.ListSightings(ctx, token)
	s.metrics.ReloadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Reloads.WithLabelValues(metrics.ReloadError).Inc()
		s.mu.Lock()
		s.status.LastError = err.Error()
		s.mu.Unlock()

		log.Warn().Err(err).Msg("marker reload failed, keeping current markers")
		return fmt.Errorf("reload markers: %w", err)
	}

	s.mu.Lock()
	if applied := s.applied; gen <= applied {
		s.mu.Unlock()
		s.metrics.Reloads.WithLabelValues(metrics.ReloadStale).Inc()
		log.Debug().Uint64("applied", applied).Msg("discarding stale reload")
		return nil
	}
	s.applied = gen

	n, err := s.surface.ReplaceMarkers(domain.MarkersFromSightings(sightings))
	s.metrics.MarkersDrawn.Set(float64(n))
	s.status.Applied = gen
	s.status.Drawn = n
	if err != nil {
		s.status.LastError = err.Error()
		s.mu.Unlock()
		s.metrics.Reloads.WithLabelValues(metrics.ReloadError).Inc()
		return fmt.Errorf("reload markers: %w", err)
	}
	s.status.LastSuccess = time.Now()
	s.status.LastError = ""
	s.mu.Unlock()

	s.metrics.Reloads.WithLabelValues(metrics.ReloadOK).Inc()
	log.Debug().Int("markers", n).Msg("markers reloaded")

	s.storeSnapshot(ctx, gen, sightings)
	return nil
}

// storeSnapshot persists the sightings drawn by generation gen unless a
// newer generation has been drawn or stored since.
func (s *MarkerSynchronizer) storeSnapshot(ctx context.Context, gen uint64, sightings []domain.Sighting) {
	if s.snapshot == nil {
		return
	}

	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	s.mu.Lock()
	current := s.applied == gen
	s.mu.Unlock()
	if !current || gen <= s.stored {
		return
	}

	if err := s.snapshot.Store(ctx, sightings); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Uint64("gen", gen).Msg("store sighting snapshot")
		return
	}
	s.stored = gen
}

// Start performs the initial reload and then polls. Calling it again while
// running does nothing.
func (s *MarkerSynchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.job != nil {
		s.mu.Unlock()
		return
	}
	s.job = s.sched.Every(s.interval, func() {
		_ = s.Reload(ctx)
	})
	s.status.Running = true
	s.mu.Unlock()

	_ = s.Reload(ctx)
}

// Stop cancels polling. Safe to call repeatedly.
func (s *MarkerSynchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil {
		s.job.Stop()
		s.job = nil
	}
	s.status.Running = false
}

// RestoreSnapshot draws the cached sightings if nothing fresher has been
// drawn yet. It returns the number of markers drawn.
func (s *MarkerSynchronizer) RestoreSnapshot(ctx context.Context) (int, error) {
	if s.snapshot == nil || !s.surface.Initialized() {
		return 0, nil
	}

	sightings, err := s.snapshot.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore snapshot: %w", err)
	}
	if len(sightings) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied > 0 {
		return 0, nil
	}

	n, err := s.surface.ReplaceMarkers(domain.MarkersFromSightings(sightings))
	s.metrics.MarkersDrawn.Set(float64(n))
	s.status.Drawn = n
	if err != nil {
		return n, fmt.Errorf("restore snapshot: %w", err)
	}

	logging.Ctx(ctx).Info().Int("markers", n).Msg("drew cached sightings")
	return n, nil
}

func (s *MarkerSynchronizer) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
