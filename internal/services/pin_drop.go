package services

import (
	"context"
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/platform/metrics"
	"ratlogger/internal/platform/schedule"
	"ratlogger/internal/ports"
	"strings"
	"sync"
	"time"
)

type PinDropState int

const (
	StateIdle PinDropState = iota
	StateAwaitingChoice
	StateResolvingGeolocation
	StateSubmitting
)

func (s PinDropState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingChoice:
		return "awaiting-choice"
	case StateResolvingGeolocation:
		return "resolving-geolocation"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("PinDropState(%d)", int(s))
	}
}

type Choice int

const (
	UseClickedLocation Choice = iota
	UseDeviceLocation
	Cancel
)

func (c Choice) String() string {
	switch c {
	case UseClickedLocation:
		return "clicked"
	case UseDeviceLocation:
		return "device"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("Choice(%d)", int(c))
	}
}

func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clicked", "use-clicked-location", "clicked-location":
		return UseClickedLocation, nil
	case "device", "use-device-location", "device-location", "my-location":
		return UseDeviceLocation, nil
	case "cancel":
		return Cancel, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, domain.ErrUnknownChoice)
	}
}

// Locator resolves a fresh device position.
type Locator interface {
	Locate(ctx context.Context) (domain.Coordinates, error)
}

// Reloader refreshes the drawn markers.
type Reloader interface {
	Reload(ctx context.Context) error
}

type PinDropStatus struct {
	State       PinDropState
	Candidate   *domain.Coordinates
	Description string
	HasPhoto    bool
	// Transient message, cleared after the error TTL.
	Error string
}

// PinDrop walks a report from the first click to submission.
type PinDrop struct {
	session  ports.SessionHandle
	creator  ports.SightingCreator
	locator  Locator
	reloader Reloader
	sched    schedule.Scheduler
	errorTTL time.Duration
	metrics  *metrics.Metrics

	// Optional; called after a successful submission.
	onSubmitted func(domain.Sighting)

	mu       sync.Mutex
	state    PinDropState
	pending  *domain.PendingReport
	errMsg   string
	errSeq   int
	errClear schedule.Job
}

type PinDropOptions struct {
	ErrorTTL    time.Duration
	Metrics     *metrics.Metrics
	OnSubmitted func(domain.Sighting)
}

func NewPinDrop(
	session ports.SessionHandle,
	creator ports.SightingCreator,
	locator Locator,
	reloader Reloader,
	sched schedule.Scheduler,
	opts PinDropOptions,
) *PinDrop {
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = 3 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	return &PinDrop{
		session:     session,
		creator:     creator,
		locator:     locator,
		reloader:    reloader,
		sched:       sched,
		errorTTL:    opts.ErrorTTL,
		metrics:     opts.Metrics,
		onSubmitted: opts.OnSubmitted,
	}
}

// HandleClick opens the choice dialog with at as candidate. A click while
// the dialog is open moves the candidate; clicks while resolving or
// submitting are ignored. It reports whether the click was taken.
func (p *PinDrop) HandleClick(at domain.Coordinates) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateIdle:
		p.pending = &domain.PendingReport{Source: domain.SourceClickedLocation}
		p.state = StateAwaitingChoice
	case StateAwaitingChoice:
		if p.pending == nil {
			p.pending = &domain.PendingReport{}
		}
	default:
		return false
	}

	c := at
	p.pending.Coordinates = &c
	p.pending.Source = domain.SourceClickedLocation
	return true
}

// Begin opens the dialog without a clicked candidate (report button).
func (p *PinDrop) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateIdle:
		p.pending = &domain.PendingReport{}
		p.state = StateAwaitingChoice
		return nil
	case StateAwaitingChoice:
		return nil
	default:
		return domain.ErrWorkflowBusy
	}
}

func (p *PinDrop) AttachPhoto(photo domain.Photo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateAwaitingChoice {
		return domain.ErrWorkflowBusy
	}
	p.pending.Photo = &photo
	return nil
}

func (p *PinDrop) SetDescription(d string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateAwaitingChoice {
		return domain.ErrWorkflowBusy
	}
	p.pending.Description = strings.TrimSpace(d)
	return nil
}

// Choose applies the user's choice. Cancel returns (nil, nil). On success
// the created sighting is returned and the markers are reloaded.
func (p *PinDrop) Choose(ctx context.Context, choice Choice) (*domain.Sighting, error) {
	p.mu.Lock()
	if p.state != StateAwaitingChoice {
		p.mu.Unlock()
		return nil, domain.ErrWorkflowBusy
	}

	switch choice {
	case Cancel:
		p.reset()
		p.mu.Unlock()
		return nil, nil

	case UseClickedLocation:
		if p.pending.Coordinates == nil {
			err := p.fail(domain.ErrMissingCoordinates)
			p.mu.Unlock()
			return nil, err
		}
		p.pending.Source = domain.SourceClickedLocation

	case UseDeviceLocation:
		p.state = StateResolvingGeolocation
		p.mu.Unlock()

		pos, err := p.locator.Locate(ctx)

		p.mu.Lock()
		if err != nil {
			err = p.fail(err)
			p.mu.Unlock()
			return nil, err
		}
		p.pending.Coordinates = &pos
		p.pending.Source = domain.SourceDeviceLocation

	default:
		p.mu.Unlock()
		return nil, fmt.Errorf("%v: %w", choice, domain.ErrUnknownChoice)
	}

	token, ok := p.session.Token()
	if !ok {
		err := p.fail(domain.ErrUnauthenticated)
		p.mu.Unlock()
		return nil, err
	}
	if err := p.pending.Ready(); err != nil {
		err = p.fail(err)
		p.mu.Unlock()
		return nil, err
	}

	report := p.pending.ToNewSighting()
	source := p.pending.Source
	p.state = StateSubmitting
	p.mu.Unlock()

	created, err := p.creator.CreateSighting(ctx, token, report)

	p.mu.Lock()
	if err != nil {
		p.metrics.Reports.WithLabelValues("error").Inc()
		err = p.fail(err)
		p.mu.Unlock()
		return nil, err
	}
	p.reset()
	p.mu.Unlock()

	p.metrics.Reports.WithLabelValues("ok").Inc()
	logging.Ctx(ctx).Info().Str("sighting", created.ID).Str("source", string(source)).Str("at", created.Coordinates.String()).Msg("sighting reported")

	if p.onSubmitted != nil {
		p.onSubmitted(created)
	}
	if err := p.reloader.Reload(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("reload after report failed")
	}

	return &created, nil
}

func (p *PinDrop) Status() PinDropStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := PinDropStatus{State: p.state, Error: p.errMsg}
	if p.pending != nil {
		if p.pending.Coordinates != nil {
			c := *p.pending.Coordinates
			st.Candidate = &c
		}
		st.Description = p.pending.Description
		st.HasPhoto = p.pending.Photo != nil
	}
	return st
}

// reset returns to Idle and drops the pending report. Caller holds mu.
func (p *PinDrop) reset() {
	p.state = StateIdle
	p.pending = nil
}

// fail resets the workflow and shows err until the error TTL passes.
// Caller holds mu.
func (p *PinDrop) fail(err error) error {
	p.reset()

	p.errSeq++
	seq := p.errSeq
	p.errMsg = userMessage(err)
	if p.errClear != nil {
		p.errClear.Stop()
	}
	p.errClear = p.sched.After(p.errorTTL, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.errSeq == seq {
			p.errMsg = ""
			p.errClear = nil
		}
	})

	return fmt.Errorf("pin drop: %w", err)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingCoordinates):
		return "Pick a location on the map first."
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUnauthorized):
		return "Please log in to report a sighting."
	case errors.Is(err, domain.ErrGeolocationTimeout):
		return "Getting your location took too long."
	case errors.Is(err, domain.ErrGeolocationUnavailable):
		return "Unable to get your location."
	case errors.Is(err, domain.ErrInvalidCoordinates):
		return "That location is not valid."
	default:
		return "Failed to report the sighting. Please try again."
	}
}
