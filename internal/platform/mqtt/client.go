// Package mqtt wraps the paho client used to receive wearable telemetry.
package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MessageHandler processes one inbound message. Errors are logged; they do
// not stop the subscription.
type MessageHandler func(ctx context.Context, topic string, payload []byte) error

// Config holds broker connection settings.
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Client is a connected MQTT session.
type Client struct {
	client paho.Client
	logger zerolog.Logger
	qos    byte
}

// Dial connects to the broker with auto-reconnect enabled.
func Dial(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(timeout)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn().Err(err).Str("broker", cfg.Broker).Msg("mqtt connection lost")
	})
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info().Str("broker", cfg.Broker).Msg("mqtt connected")
	})

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}
	return &Client{client: c, logger: logger, qos: 1}, nil
}

// Subscribe routes messages on topic to handler until the client
// disconnects. ctx is passed to every handler call.
func (c *Client) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	token := c.client.Subscribe(topic, c.qos, func(_ paho.Client, msg paho.Message) {
		Dispatch(ctx, c.logger, handler, msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}
	return nil
}

// Dispatch runs handler and logs any error or panic.
func Dispatch(ctx context.Context, logger zerolog.Logger, handler MessageHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("topic", topic).Msg("mqtt handler panicked")
		}
	}()
	if err := handler(ctx, topic, payload); err != nil {
		logger.Warn().Err(err).Str("topic", topic).Int("bytes", len(payload)).Msg("mqtt message rejected")
	}
}

func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects, waiting up to 250ms for in-flight work.
func (c *Client) Close() {
	c.client.Disconnect(250)
}
