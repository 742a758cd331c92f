package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/huerizon/skysyncd/internal/color"
	"github.com/huerizon/skysyncd/internal/engine"
	"github.com/huerizon/skysyncd/internal/eventbus"
	"github.com/huerizon/skysyncd/internal/hue"
)

// SyncService runs readings through the engine and pushes applied
// commands to the bridge. Every decision, applied or not, is published
// on the event bus.
type SyncService struct {
	engine  *engine.Engine
	applier hue.Applier
	bus     *eventbus.Bus
}

// NewSyncService wires the engine to the applier and the event bus.
func NewSyncService(eng *engine.Engine, applier hue.Applier, bus *eventbus.Bus) *SyncService {
	return &SyncService{
		engine:  eng,
		applier: applier,
		bus:     bus,
	}
}

// HandleReading evaluates one reading and delivers the resulting
// commands. A bridge failure on one target does not stop the others.
func (s *SyncService) HandleReading(ctx context.Context, r color.Reading) []engine.Decision {
	s.bus.Publish(eventbus.Event{Type: eventbus.EventTypeReading, Reading: r})

	decisions := s.engine.Evaluate(r)
	for i := range decisions {
		d := &decisions[i]

		if d.Outcome == engine.OutcomeApplied && d.Command != nil {
			if err := s.applier.Apply(ctx, *d.Command); err != nil {
				log.Error().Err(err).Str("target", d.Target).Msg("Bridge apply failed")
				d.Outcome = engine.OutcomeRejected
				d.Err = err
				d.Command = nil
			}
		}

		s.bus.Publish(eventbus.Event{Type: eventbus.EventTypeDecision, Decision: *d})
	}
	return decisions
}
