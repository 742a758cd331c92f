package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huerizon/skysyncd/internal/config"
	"github.com/huerizon/skysyncd/internal/db"
	"github.com/huerizon/skysyncd/internal/engine"
	"github.com/huerizon/skysyncd/internal/eventbus"
	"github.com/huerizon/skysyncd/internal/hue"
	"github.com/huerizon/skysyncd/internal/ledger"
	"github.com/huerizon/skysyncd/internal/mqtt"
	"github.com/huerizon/skysyncd/internal/state"
	"github.com/huerizon/skysyncd/internal/stores"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB     *db.DB
	Ledger *ledger.Ledger

	// State store (generic JSON store)
	Store  *state.Store
	Stores *stores.Registry

	// Pipeline
	Bus     *eventbus.Bus
	Engine  *engine.Engine
	Applier *hue.BridgeApplier

	// High-level services
	Sync   *SyncService
	MQTT   *MQTTService
	Health *HealthService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	// Initialize ledger
	s.Ledger = ledger.New(database.DB)

	// Initialize generic state store and typed registry
	s.Store = state.NewStore(database.DB)
	s.Stores = stores.NewRegistry(s.Store)

	// Initialize engine with persisted filter state
	engineCfg, err := cfg.Engine.BuildEngine()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = engine.New(engineCfg, stores.NewFilterStateStore(s.Stores))

	// Initialize event bus
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	// Initialize bridge applier
	s.Applier = hue.NewBridgeApplier(
		cfg.Hue.Bridge,
		cfg.Hue.Token,
		cfg.Hue.RateLimitRPS,
		cfg.Hue.Timeout.Duration(),
	)

	// Initialize sync pipeline and the reading feed
	s.Sync = NewSyncService(s.Engine, s.Applier, s.Bus)

	subscriber := mqtt.NewClient(mqtt.Options{
		Broker:         cfg.MQTT.Broker,
		Topic:          cfg.MQTT.Topic,
		ClientID:       cfg.MQTT.ClientID,
		ConnectTimeout: cfg.MQTT.ConnectTimeout.Duration(),
		Parse:          mqtt.ParseOptions{StripSymbols: cfg.Engine.StripSymbols},
	})
	s.MQTT = NewMQTTService(subscriber, s.Sync)

	// Initialize health service
	s.Health = NewHealthService(cfg, s.Sync, s.Ledger)

	// Every decision lands in the ledger and the log.
	s.Bus.Subscribe(eventbus.EventTypeDecision, s.recordDecision)

	return s, nil
}

// recordDecision is the bus handler that persists and logs every decision.
func (s *Services) recordDecision(ev eventbus.Event) {
	d := ev.Decision

	if err := s.Ledger.Append(d); err != nil {
		log.Error().Err(err).Str("target", d.Target).Msg("Failed to record decision")
	}

	evt := log.Info().
		Str("target", d.Target).
		Str("outcome", string(d.Outcome))
	if d.Reason != "" {
		evt = evt.Str("reason", string(d.Reason))
	}
	if d.Err != nil {
		evt = evt.Err(d.Err)
	}
	evt.Msg("Decision")
}

// Start starts all services in the correct order.
// The onFatalError callback is called when a fatal error occurs.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	// Probe the Hue bridge
	if err := s.Applier.Connect(ctx); err != nil {
		return err
	}

	// Subscribe to the reading feed
	if err := s.MQTT.Start(ctx); err != nil {
		return err
	}

	// Start background services
	s.Health.Start(ctx)
	go s.ledgerCleanupLoop(ctx)

	return nil
}

// ledgerCleanupLoop applies the retention policy on a fixed interval.
func (s *Services) ledgerCleanupLoop(ctx context.Context) {
	interval := s.cfg.Ledger.CleanupInterval.Duration()
	retention := time.Duration(s.cfg.Ledger.RetentionDays) * 24 * time.Hour

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.Ledger.DeleteOlderThan(retention)
			if err != nil {
				log.Error().Err(err).Msg("Ledger cleanup failed")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("Ledger cleanup completed")
			}
		}
	}
}

// ClearState clears all persisted filter state.
func (s *Services) ClearState() error {
	return s.Engine.ResetState()
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.MQTT != nil {
		s.MQTT.Stop()
	}
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		defer cancel()
		s.Bus.Close(ctx)
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
