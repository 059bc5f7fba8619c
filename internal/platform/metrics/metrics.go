// Package metrics holds the Prometheus collectors for marker sync and
// report submission.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ratlogger"

// Reload outcomes.
const (
	ReloadOK      = "ok"
	ReloadError   = "error"
	ReloadStale   = "stale"
	ReloadSkipped = "skipped"
)

type Metrics struct {
	Reloads        *prometheus.CounterVec
	ReloadDuration prometheus.Histogram
	MarkersDrawn   prometheus.Gauge
	Reports        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marker_reloads_total",
			Help:      "Marker reloads by outcome.",
		}, []string{"result"}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "marker_reload_duration_seconds",
			Help:      "Time spent fetching sightings for a reload.",
			Buckets:   prometheus.DefBuckets,
		}),
		MarkersDrawn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markers_drawn",
			Help:      "Markers currently drawn on the map.",
		}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Pin-drop submissions by outcome.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.Reloads, m.ReloadDuration, m.MarkersDrawn, m.Reports)
	}

	return m
}
