package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/huerizon/skysyncd/internal/color"
	"github.com/huerizon/skysyncd/internal/mqtt"
)

// MQTTService feeds readings from the broker into the sync pipeline.
type MQTTService struct {
	subscriber mqtt.Subscriber
	sync       *SyncService
}

// NewMQTTService creates the reading feed service.
func NewMQTTService(subscriber mqtt.Subscriber, sync *SyncService) *MQTTService {
	return &MQTTService{
		subscriber: subscriber,
		sync:       sync,
	}
}

// Start connects to the broker and subscribes to the reading topic.
func (s *MQTTService) Start(ctx context.Context) error {
	return s.subscriber.Connect(ctx, func(r color.Reading) {
		s.sync.HandleReading(ctx, r)
	})
}

// Stop tears down the broker session.
func (s *MQTTService) Stop() {
	s.subscriber.Disconnect()
	log.Debug().Msg("Reading feed stopped")
}
