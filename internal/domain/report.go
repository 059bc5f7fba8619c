package domain

type ReportSource string

const (
	SourceClickedLocation ReportSource = "clicked-location"
	SourceDeviceLocation  ReportSource = "device-location"
)

// Report being assembled by the pin-drop workflow.
// It lives from the first click (or report button) until it is submitted
// successfully or cancelled.
type PendingReport struct {
	Source      ReportSource
	Coordinates *Coordinates
	Description string
	Photo       *Photo
}

// Check the report can be submitted.
func (p *PendingReport) Ready() error {
	if p == nil || p.Coordinates == nil {
		return ErrMissingCoordinates
	}
	return p.Coordinates.Validate()
}

// Convert to the submission payload. Call Ready first.
func (p *PendingReport) ToNewSighting() NewSighting {
	return NewSighting{
		Coordinates: *p.Coordinates,
		Description: p.Description,
		Photo:       p.Photo,
	}
}
