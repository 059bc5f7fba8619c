package domain

import "errors"

var (
	// Validation gaps, rejected before any network call.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrMissingCoordinates = errors.New("report has no resolved coordinates")
	ErrUnauthenticated    = errors.New("no session token")

	// Backend answered 401; the session must be dropped.
	ErrUnauthorized = errors.New("unauthorized")

	ErrMalformedResponse = errors.New("malformed response body")

	ErrGeolocationUnavailable = errors.New("geolocation unavailable")
	ErrGeolocationTimeout     = errors.New("geolocation timed out")

	ErrSurfaceMissing    = errors.New("map surface does not exist")
	ErrSurfaceBound      = errors.New("map surface already has a map")
	ErrMapNotInitialized = errors.New("map is not initialized")

	ErrPasswordMismatch = errors.New("passwords don't match")
	ErrWorkflowBusy     = errors.New("pin drop is not awaiting a choice")
	ErrUnknownChoice    = errors.New("unknown pin drop choice")
)
