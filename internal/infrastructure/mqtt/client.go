package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/config"
)

// Client is the bridge's broker session.
//
// It wraps paho.mqtt.golang with an availability topic ({prefix}/bridge/status,
// backed by the Last Will), subscriptions that survive reconnects, and
// handlers that cannot take the delivery goroutine down.
//
// All methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	// subscriptions are replayed by handleConnect after every reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	// handlers counts messages still being handled; Close waits on it.
	handlers sync.WaitGroup

	connected atomic.Bool
	logger    atomic.Pointer[Logger]
}

// Logger is the logging surface for connection events and handler
// failures. Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler receives one inbound message. Returned errors are logged.
// Each message is handled on its own goroutine, so a handler may block or
// publish; Close waits for handlers still running.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker and returns once the session is up.
//
// An empty client ID is replaced by a generated one. The Last Will marks
// the bridge "offline" on {prefix}/bridge/status, and every (re)connect
// publishes "online" there. Connect gives up after the connect timeout
// with ErrConnectionFailed; later drops are retried in the background.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	cfg.ClientID = resolveClientID(cfg.ClientID)

	c := &Client{
		cfg:           cfg,
		topics:        NewTopics(cfg.Prefix),
		subscriptions: make(map[string]subscription),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleDisconnect(err) })
	opts.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		c.logWarn("reconnecting to MQTT broker", "url", cfg.URL)
	})

	c.client = pahomqtt.NewClient(opts)
	if err := await(c.client.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		// Stop the background connect retry.
		c.client.Disconnect(0)
		return nil, err
	}

	// handleConnect runs asynchronously and may not have run yet.
	c.connected.Store(true)

	return c, nil
}

// handleConnect restores subscriptions and announces availability.
func (c *Client) handleConnect() {
	c.connected.Store(true)

	for _, sub := range c.activeSubscriptions() {
		// Failures surface on the next reconnect.
		c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
	c.publishAvailability(availabilityOnline)
}

func (c *Client) handleDisconnect(err error) {
	c.connected.Store(false)
	c.logWarn("MQTT connection lost", "error", err)
}

// publishAvailability publishes the retained bridge availability state.
func (c *Client) publishAvailability(state string) pahomqtt.Token {
	return c.client.Publish(c.topics.BridgeStatus(), availabilityQoS, true, state)
}

// Close publishes "offline", disconnects and waits for message handlers
// still running. The will is not sent for a clean disconnect.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		c.publishAvailability(availabilityOffline).WaitTimeout(defaultPublishTimeout)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	c.handlers.Wait()

	return nil
}

// HealthCheck reports ErrNotConnected while the session is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the session is currently up.
func (c *Client) IsConnected() bool {
	return c.connected.Load() && c.client != nil && c.client.IsConnected()
}

// Topics returns the topic builder for the configured prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

// ClientID returns the client ID used for the broker session.
func (c *Client) ClientID() string {
	return c.cfg.ClientID
}

// SetLogger sets the logger for connection events and handler failures.
// Without one they are not reported.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		c.logger.Store(nil)
		return
	}
	c.logger.Store(&logger)
}

func (c *Client) logWarn(msg string, args ...any) {
	if l := c.logger.Load(); l != nil {
		(*l).Warn(msg, args...)
	}
}

func (c *Client) logError(msg string, args ...any) {
	if l := c.logger.Load(); l != nil {
		(*l).Error(msg, args...)
	}
}

// wrapHandler adapts a MessageHandler to paho's callback. paho's router
// goroutine must not block, so the handler runs on a goroutine of its own.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		topic, payload := msg.Topic(), msg.Payload()
		c.handlers.Add(1)
		go func() {
			defer c.handlers.Done()
			c.dispatch(handler, topic, payload)
		}()
	}
}

// dispatch runs a handler, logging returned errors and recovering panics.
func (c *Client) dispatch(handler MessageHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logError("MQTT handler panic recovered", "topic", topic, "panic", r)
		}
	}()

	if err := handler(topic, payload); err != nil {
		c.logWarn("MQTT handler returned error", "topic", topic, "error", err)
	}
}
