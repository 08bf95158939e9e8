package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/hue-mqtt-sensors/internal/hue"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/mqtt"
)

// Defaults applied by NewBridge.
const (
	defaultPollInterval   = 60 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// ErrorPolicy selects what happens when a hub call fails.
type ErrorPolicy string

const (
	// PolicyLog logs the failure and keeps running; the next tick retries.
	PolicyLog ErrorPolicy = "log"

	// PolicyExit makes Run return the failure.
	PolicyExit ErrorPolicy = "exit"
)

// Hub is the hub session the bridge reads and writes sensors through.
// Satisfied by *hue.Local and *hue.Remote.
type Hub interface {
	ListSensors(ctx context.Context) ([]hue.Sensor, error)
	GetSensor(ctx context.Context, id string) (hue.Sensor, error)
	UpdateSensorState(ctx context.Context, s hue.Sensor) error
}

// MQTTClient is the bus connection. Satisfied by *mqtt.Client.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// ReadingSink records published readings as history.
// Satisfied by *influxdb.Client.
type ReadingSink interface {
	WriteSensorReading(sensorID, sensorType, name string, value any, ts time.Time)
}

// Logger defines the logging interface for the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds configuration for creating a bridge.
type Options struct {
	// Hub is the authenticated hub session.
	Hub Hub

	// MQTT is the connected bus client.
	MQTT MQTTClient

	// Topics builds topics under the configured prefix.
	Topics mqtt.Topics

	// PollInterval is the time between polls (default 60s).
	PollInterval time.Duration

	// RequestTimeout bounds every hub call (default 10s).
	RequestTimeout time.Duration

	// ErrorPolicy defaults to PolicyLog.
	ErrorPolicy ErrorPolicy

	// QoS and Retain apply to status messages.
	QoS    byte
	Retain bool

	// Commands enables the {prefix}/set/# subscription.
	Commands bool

	// Sink is optional reading history.
	Sink ReadingSink

	// Logger is optional structured logger.
	Logger Logger
}

// Bridge publishes hub sensors to MQTT and applies set commands.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	hub       Hub
	mqtt      MQTTClient
	topics    mqtt.Topics
	qos       byte
	commands  bool
	policy    ErrorPolicy
	publisher *Publisher
	router    *Router
	poller    *Poller
	stats     *stats
	logger    Logger

	// fatal carries the first hub failure under PolicyExit.
	fatal chan error

	startedAt time.Time
	startMu   sync.RWMutex
}

// stats are the bridge counters shared by its components.
type stats struct {
	polls         atomic.Uint64
	pollErrors    atomic.Uint64
	published     atomic.Uint64
	publishErrors atomic.Uint64
	commands      atomic.Uint64
	commandErrors atomic.Uint64
	dropped       atomic.Uint64
	lastPoll      atomic.Int64 // unix nanoseconds
}

// NewBridge creates a bridge. Call Run to start it.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.Hub == nil {
		return nil, fmt.Errorf("hub session is required")
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("invalid QoS %d", opts.QoS)
	}

	policy := opts.ErrorPolicy
	switch policy {
	case "":
		policy = PolicyLog
	case PolicyLog, PolicyExit:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	topics := opts.Topics
	if topics.Prefix == "" {
		topics = mqtt.NewTopics("")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	b := &Bridge{
		hub:      opts.Hub,
		mqtt:     opts.MQTT,
		topics:   topics,
		qos:      opts.QoS,
		commands: opts.Commands,
		policy:   policy,
		stats:    &stats{},
		logger:   logger,
		fatal:    make(chan error, 1),
	}

	b.publisher = &Publisher{
		client: opts.MQTT,
		topics: topics,
		qos:    opts.QoS,
		retain: opts.Retain,
		sink:   opts.Sink,
		stats:  b.stats,
		logger: logger,
	}
	b.router = &Router{
		hub:        opts.Hub,
		publisher:  b.publisher,
		topics:     topics,
		timeout:    timeout,
		stats:      b.stats,
		logger:     logger,
		onHubError: b.handleHubError,
	}
	b.poller = &Poller{
		hub:        opts.Hub,
		publisher:  b.publisher,
		interval:   interval,
		timeout:    timeout,
		stats:      b.stats,
		logger:     logger,
		onHubError: b.handleHubError,
	}

	return b, nil
}

// Run polls once, subscribes to set commands when enabled, then polls on
// every interval until ctx is cancelled.
//
// Under PolicyExit the first hub failure stops the bridge and is returned
// wrapped in ErrHubFailure. A cancelled ctx returns nil.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.startMu.Lock()
	b.startedAt = time.Now()
	b.startMu.Unlock()

	if err := b.poller.PollOnce(ctx); err != nil {
		b.handleHubError("initial poll failed", err)
	}

	if b.commands {
		topic := b.topics.SetCommands()
		handler := func(topic string, payload []byte) error {
			return b.router.HandleMessage(ctx, topic, payload)
		}
		if err := b.mqtt.Subscribe(topic, b.qos, handler); err != nil {
			return fmt.Errorf("subscribe to commands: %w", err)
		}
		b.logger.Info("subscribed to commands", "topic", topic)

		defer func() {
			if err := b.mqtt.Unsubscribe(topic); err != nil {
				b.logger.Warn("unsubscribe from commands failed", "topic", topic, "error", err)
			}
		}()
	}

	b.logger.Info("bridge started",
		"prefix", b.topics.Prefix,
		"interval", b.poller.interval.String(),
		"commands", b.commands,
		"error_policy", string(b.policy),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.poller.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-b.fatal:
			return fmt.Errorf("%w: %w", ErrHubFailure, err)
		}
	})

	err := g.Wait()
	b.logger.Info("bridge stopped")
	return err
}

// HandleMessage routes one inbound command message.
func (b *Bridge) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	return b.router.HandleMessage(ctx, topic, payload)
}

// PollOnce runs a single poll cycle outside the schedule.
func (b *Bridge) PollOnce(ctx context.Context) error {
	return b.poller.PollOnce(ctx)
}

// handleHubError applies the error policy to a hub failure.
func (b *Bridge) handleHubError(msg string, err error) {
	b.logger.Error(msg, "error", err)

	if b.policy != PolicyExit {
		return
	}
	select {
	case b.fatal <- err:
	default:
	}
}

// Metrics contains bridge counters for the API metrics endpoint.
type Metrics struct {
	Polls         uint64
	PollErrors    uint64
	Published     uint64
	PublishErrors uint64
	Commands      uint64
	CommandErrors uint64
	Dropped       uint64
	LastPoll      time.Time
	Uptime        time.Duration
	MQTTConnected bool
}

// GetMetrics returns a snapshot of the bridge counters.
func (b *Bridge) GetMetrics() Metrics {
	m := Metrics{
		Polls:         b.stats.polls.Load(),
		PollErrors:    b.stats.pollErrors.Load(),
		Published:     b.stats.published.Load(),
		PublishErrors: b.stats.publishErrors.Load(),
		Commands:      b.stats.commands.Load(),
		CommandErrors: b.stats.commandErrors.Load(),
		Dropped:       b.stats.dropped.Load(),
		MQTTConnected: b.mqtt.IsConnected(),
	}

	if ns := b.stats.lastPoll.Load(); ns != 0 {
		m.LastPoll = time.Unix(0, ns)
	}

	b.startMu.RLock()
	started := b.startedAt
	b.startMu.RUnlock()
	if !started.IsZero() {
		m.Uptime = time.Since(started)
	}

	return m
}

// callHub runs one hub call bounded by timeout.
func callHub[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return call(ctx)
}
