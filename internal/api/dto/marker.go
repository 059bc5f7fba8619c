package dto

type MarkerResponse struct {
	ID         string  `json:"id"`
	SightingID string  `json:"sighting_id,omitempty"`
	Lon        float64 `json:"lon"`
	Lat        float64 `json:"lat"`
	Popup      string  `json:"popup"`
	Highlight  bool    `json:"highlight"`
}

type ListMarkersResponse struct {
	Count   int              `json:"count"`
	Markers []MarkerResponse `json:"markers"`
}

type SyncStatusResponse struct {
	Running     bool   `json:"running"`
	Generation  uint64 `json:"generation"`
	Drawn       int    `json:"drawn"`
	LastSuccess string `json:"last_success,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}
