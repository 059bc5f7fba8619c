package dto

import "time"

type ClickRequest struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

type ReportRequest struct {
	Description string `json:"description"`
}

type ChoiceRequest struct {
	// clicked, device or cancel
	Choice      string  `json:"choice"`
	Description *string `json:"description"`
}

type PointResponse struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type PinDropResponse struct {
	State       string         `json:"state"`
	Candidate   *PointResponse `json:"candidate"`
	Description string         `json:"description,omitempty"`
	HasPhoto    bool           `json:"has_photo"`
	Error       string         `json:"error,omitempty"`
}

type SightingResponse struct {
	ID          string    `json:"id"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChoiceResponse struct {
	Sighting *SightingResponse `json:"sighting"`
	PinDrop  PinDropResponse   `json:"pin_drop"`
}
