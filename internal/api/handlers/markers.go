package handlers

import (
	"context"
	"net/http"
	"ratlogger/internal/api/dto"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/services"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

type MarkerSource interface {
	Markers() []domain.Marker
}

type SyncControl interface {
	Reload(ctx context.Context) error
	Status() services.SyncStatus
}

// MarkerHandler exposes the drawn markers and the synchronizer.
type MarkerHandler struct {
	Map  MarkerSource
	Sync SyncControl
}

func (h *MarkerHandler) List(w http.ResponseWriter, r *http.Request) {
	markers := h.Map.Markers()

	res := dto.ListMarkersResponse{
		Count:   len(markers),
		Markers: make([]dto.MarkerResponse, 0, len(markers)),
	}
	for _, m := range markers {
		res.Markers = append(res.Markers, dto.MarkerResponse{
			ID:         m.ID,
			SightingID: m.SightingID,
			Lon:        m.Position.Lon,
			Lat:        m.Position.Lat,
			Popup:      m.PopupContent,
			Highlight:  m.Highlight,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// GeoJSON returns the drawn markers as a FeatureCollection of points.
func (h *MarkerHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	fc := geojson.NewFeatureCollection()
	for _, m := range h.Map.Markers() {
		f := geojson.NewPointFeature(m.Position.CoordsToList())
		f.ID = m.ID
		f.SetProperty("popup", m.PopupContent)
		f.SetProperty("highlight", m.Highlight)
		if m.SightingID != "" {
			f.SetProperty("sighting_id", m.SightingID)
		}
		fc.AddFeature(f)
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("marshal markers geojson")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Reload runs one reconciliation now and reports the outcome.
func (h *MarkerHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.Sync.Reload(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("manual reload failed")
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, syncStatus(h.Sync.Status()))
}

func (h *MarkerHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, syncStatus(h.Sync.Status()))
}

func syncStatus(s services.SyncStatus) dto.SyncStatusResponse {
	res := dto.SyncStatusResponse{
		Running:    s.Running,
		Generation: s.Applied,
		Drawn:      s.Drawn,
		LastError:  s.LastError,
	}
	if !s.LastSuccess.IsZero() {
		res.LastSuccess = s.LastSuccess.Format(time.RFC3339)
	}
	return res
}
