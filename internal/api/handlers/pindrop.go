package handlers

import (
	"context"
	"net/http"
	"ratlogger/internal/api/dto"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/services"
)

type PinDropWorkflow interface {
	Status() services.PinDropStatus
	Begin() error
	SetDescription(d string) error
	Choose(ctx context.Context, choice services.Choice) (*domain.Sighting, error)
}

// Clicker delivers a click to a map surface, as a user tap would.
type Clicker interface {
	Click(surfaceID string, at domain.Coordinates) error
}

// PinDropHandler drives the report workflow over HTTP.
type PinDropHandler struct {
	Workflow  PinDropWorkflow
	Surface   Clicker
	SurfaceID string
}

func (h *PinDropHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, pinDropStatus(h.Workflow.Status()))
}

// Click simulates a tap on the map at the given position.
func (h *PinDropHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req dto.ClickRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Lon == nil || req.Lat == nil {
		writeError(w, r, http.StatusBadRequest, "lon and lat are required")
		return
	}

	at := domain.Coordinates{Lon: *req.Lon, Lat: *req.Lat}
	if err := at.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Surface.Click(h.SurfaceID, at); err != nil {
		writeError(w, r, statusFor(err), err.Error())
		return
	}

	writeJSON(w, r, http.StatusAccepted, pinDropStatus(h.Workflow.Status()))
}

// Report opens the dialog without a clicked location (report button).
func (h *PinDropHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Workflow.Begin(); err != nil {
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	if req.Description != "" {
		if err := h.Workflow.SetDescription(req.Description); err != nil {
			writeError(w, r, statusFor(err), err.Error())
			return
		}
	}

	writeJSON(w, r, http.StatusOK, pinDropStatus(h.Workflow.Status()))
}

func (h *PinDropHandler) Choose(w http.ResponseWriter, r *http.Request) {
	var req dto.ChoiceRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	choice, err := services.ParseChoice(req.Choice)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Description != nil && choice != services.Cancel {
		if err := h.Workflow.SetDescription(*req.Description); err != nil {
			writeError(w, r, statusFor(err), err.Error())
			return
		}
	}

	created, err := h.Workflow.Choose(r.Context(), choice)
	if err != nil {
		logging.Ctx(r.Context()).Info().Err(err).Str("choice", choice.String()).Msg("pin drop rejected")
		writeJSON(w, r, statusFor(err), map[string]any{
			"error":    err.Error(),
			"pin_drop": pinDropStatus(h.Workflow.Status()),
		})
		return
	}

	res := dto.ChoiceResponse{PinDrop: pinDropStatus(h.Workflow.Status())}
	status := http.StatusOK
	if created != nil {
		res.Sighting = &dto.SightingResponse{
			ID:          created.ID,
			Lon:         created.Coordinates.Lon,
			Lat:         created.Coordinates.Lat,
			Description: created.Description,
			CreatedAt:   created.CreatedAt,
		}
		status = http.StatusCreated
	}
	writeJSON(w, r, status, res)
}

func pinDropStatus(s services.PinDropStatus) dto.PinDropResponse {
	res := dto.PinDropResponse{
		State:       s.State.String(),
		Description: s.Description,
		HasPhoto:    s.HasPhoto,
		Error:       s.Error,
	}
	if s.Candidate != nil {
		res.Candidate = &dto.PointResponse{Lon: s.Candidate.Lon, Lat: s.Candidate.Lat}
	}
	return res
}
