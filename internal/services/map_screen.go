package services

import (
	"context"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
)

// MapScreen wires the map, the synchronizer and the pin-drop workflow in
// the order the client needs: map first, then markers and clicks.
type MapScreen struct {
	resolver *GeolocationResolver
	mapc     *MapController
	sync     *MarkerSynchronizer
	pindrop  *PinDrop
}

func NewMapScreen(resolver *GeolocationResolver, mapc *MapController, sync *MarkerSynchronizer, pindrop *PinDrop) *MapScreen {
	return &MapScreen{resolver: resolver, mapc: mapc, sync: sync, pindrop: pindrop}
}

// Open initializes the map at the device position (or the default center),
// draws any cached sightings, hooks up clicks and starts polling.
func (s *MapScreen) Open(ctx context.Context) error {
	center, fallback := s.resolver.Resolve(ctx)
	if err := s.mapc.Initialize(center); err != nil {
		return fmt.Errorf("open map screen: %w", err)
	}
	if err := s.mapc.OnClick(func(at domain.Coordinates) { s.pindrop.HandleClick(at) }); err != nil {
		return fmt.Errorf("open map screen: %w", err)
	}

	if _, err := s.sync.RestoreSnapshot(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("cached sightings unavailable")
	}
	s.sync.Start(ctx)

	logging.Ctx(ctx).Info().Str("center", center.String()).Bool("fallback", fallback).Msg("map screen open")
	return nil
}

// ViewOnMap flies to a sighting and highlights it briefly.
func (s *MapScreen) ViewOnMap(sg domain.Sighting) error {
	return s.mapc.Highlight(sg.Coordinates, sg.PopupText())
}

// Close stops polling and releases the map. Safe to call repeatedly.
func (s *MapScreen) Close() {
	s.sync.Stop()
	s.mapc.Teardown()
}

func (s *MapScreen) Map() *MapController            { return s.mapc }
func (s *MapScreen) Sync() *MarkerSynchronizer      { return s.sync }
func (s *MapScreen) PinDrop() *PinDrop              { return s.pindrop }
func (s *MapScreen) Resolver() *GeolocationResolver { return s.resolver }
