package api

import (
	"net/http"
	"ratlogger/internal/api/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the running client components exposed on the control surface.
type Deps struct {
	Markers   handlers.MarkerSource
	Sync      handlers.SyncControl
	PinDrop   handlers.PinDropWorkflow
	Surface   handlers.Clicker
	SurfaceID string
	// Optional; /metrics is not mounted without it.
	Gatherer prometheus.Gatherer
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware, middleware.Recoverer)

	markers := &handlers.MarkerHandler{Map: d.Markers, Sync: d.Sync}
	pindrop := &handlers.PinDropHandler{
		Workflow:  d.PinDrop,
		Surface:   d.Surface,
		SurfaceID: d.SurfaceID,
	}

	r.Get("/health", handlers.Health)

	r.Get("/markers", markers.List)
	r.Get("/markers.geojson", markers.GeoJSON)
	r.Get("/sync", markers.Status)
	r.Post("/reload", markers.Reload)

	r.Post("/clicks", pindrop.Click)
	r.Post("/report", pindrop.Report)
	r.Get("/pindrop", pindrop.Status)
	r.Post("/pindrop/choice", pindrop.Choose)

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
