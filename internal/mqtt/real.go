package mqtt

import (
	"context"
	"fmt"
	"time"

	pm "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Client is the paho-backed Subscriber.
type Client struct {
	client  pm.Client
	topic   string
	timeout time.Duration
	opts    ParseOptions
}

// Options configure the broker session.
type Options struct {
	Broker         string
	Topic          string
	ClientID       string
	ConnectTimeout time.Duration
	Parse          ParseOptions
}

// NewClient creates an MQTT subscriber for the reading feed.
func NewClient(o Options) *Client {
	clientID := o.ClientID
	if clientID == "" {
		clientID = "skysyncd-" + uuid.NewString()[:8]
	}

	popts := pm.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(pm.Client) {
			log.Info().Str("broker", o.Broker).Msg("Connected to MQTT broker")
		}).
		SetConnectionLostHandler(func(_ pm.Client, err error) {
			log.Warn().Err(err).Msg("MQTT connection lost, reconnecting")
		})

	return &Client{
		client:  pm.NewClient(popts),
		topic:   o.Topic,
		timeout: o.ConnectTimeout,
		opts:    o.Parse,
	}
}

// Connect establishes the session and subscribes with QoS 1. Malformed
// payloads are logged and dropped; they never stop the feed.
func (c *Client) Connect(ctx context.Context, handler ReadingHandler) error {
	if err := c.wait(ctx, c.client.Connect()); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	messageHandler := func(_ pm.Client, msg pm.Message) {
		reading, err := ParseReading(msg.Payload(), c.opts)
		if err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropping malformed reading")
			return
		}
		handler(reading)
	}

	if err := c.wait(ctx, c.client.Subscribe(c.topic, 1, messageHandler)); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", c.topic, err)
	}

	log.Info().Str("topic", c.topic).Msg("Subscribed to reading feed")
	return nil
}

// Disconnect unsubscribes and closes the session.
func (c *Client) Disconnect() {
	if token := c.client.Unsubscribe(c.topic); token.Wait() && token.Error() != nil {
		log.Warn().Err(token.Error()).Msg("MQTT unsubscribe failed")
	}
	c.client.Disconnect(250)
	log.Info().Msg("Disconnected from MQTT broker")
}

// wait blocks on a paho token, honoring the connect timeout and context.
func (c *Client) wait(ctx context.Context, token pm.Token) error {
	timeout := c.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-done:
		return token.Error()
	case <-time.After(timeout):
		return fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
