// Package mqtt subscribes to the sky reading feed.
package mqtt

import (
	"context"

	"github.com/huerizon/skysyncd/internal/color"
)

// ReadingHandler receives every successfully parsed reading.
type ReadingHandler func(color.Reading)

// Subscriber is the reading feed. The real implementation talks to an
// MQTT broker; tests use the fake.
type Subscriber interface {
	// Connect establishes the broker session and subscribes to the
	// reading topic. Parsed readings are delivered to the handler.
	Connect(ctx context.Context, handler ReadingHandler) error
	// Disconnect unsubscribes and tears down the session.
	Disconnect()
}
