package handlers

import (
	"errors"
	"io"
	"net/http"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"

	"github.com/goccy/go-json"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object into v. An empty body is
// accepted when optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// statusFor maps workflow and backend errors to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWorkflowBusy), errors.Is(err, domain.ErrMapNotInitialized), errors.Is(err, domain.ErrSurfaceBound):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingCoordinates), errors.Is(err, domain.ErrInvalidCoordinates):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownChoice):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrGeolocationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrGeolocationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
