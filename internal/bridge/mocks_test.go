package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/hue-mqtt-sensors/internal/hue"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/mqtt"
)

// MockMQTTClient records publishes and subscriptions.
type MockMQTTClient struct {
	mu            sync.Mutex
	published     []mockPublish
	subscriptions []mockSubscription
	unsubscribed  []string
	connected     bool
	handlers      map[string]mqtt.MessageHandler
	failTopics    map[string]bool
	subscribeErr  error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

type mockSubscription struct {
	Topic string
	QoS   byte
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected:  true,
		handlers:   make(map[string]mqtt.MessageHandler),
		failTopics: make(map[string]bool),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTopics[topic] {
		return mqtt.ErrPublishFailed
	}
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  payload,
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.subscriptions = append(m.subscriptions, mockSubscription{Topic: topic, QoS: qos})
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, topic)
	m.unsubscribed = append(m.unsubscribed, topic)
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) FailTopic(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTopics[topic] = true
}

// SimulateMessage delivers a message to the handler subscribed on pattern.
func (m *MockMQTTClient) SimulateMessage(pattern, topic string, payload []byte) error {
	m.mu.Lock()
	handler, ok := m.handlers[pattern]
	m.mu.Unlock()
	if !ok {
		return errors.New("no handler for " + pattern)
	}
	return handler(topic, payload)
}

func (m *MockMQTTClient) GetPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockPublish(nil), m.published...)
}

func (m *MockMQTTClient) PublishedOn(topic string) []mockPublish {
	var out []mockPublish
	for _, p := range m.GetPublished() {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockMQTTClient) GetSubscriptions() []mockSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockSubscription(nil), m.subscriptions...)
}

func (m *MockMQTTClient) GetUnsubscribed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.unsubscribed...)
}

// MockHub serves sensors from memory.
type MockHub struct {
	mu        sync.Mutex
	sensors   map[string]hue.Sensor
	order     []string
	listErr   error
	getErr    error
	updateErr error
	updates   []hue.Sensor
	listCalls int
	getCalls  []string

	// listGate and getGate, when set, block the call until closed.
	listGate chan struct{}
	getGate  chan struct{}
}

func NewMockHub(sensors ...hue.Sensor) *MockHub {
	h := &MockHub{sensors: make(map[string]hue.Sensor)}
	for _, s := range sensors {
		h.sensors[s.ID] = s
		h.order = append(h.order, s.ID)
	}
	return h
}

func (h *MockHub) ListSensors(ctx context.Context) ([]hue.Sensor, error) {
	h.mu.Lock()
	gate := h.listGate
	h.listCalls++
	h.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listErr != nil {
		return nil, h.listErr
	}
	out := make([]hue.Sensor, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.sensors[id].Clone())
	}
	return out, nil
}

func (h *MockHub) GetSensor(ctx context.Context, id string) (hue.Sensor, error) {
	h.mu.Lock()
	gate := h.getGate
	h.getCalls = append(h.getCalls, id)
	h.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return hue.Sensor{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.getErr != nil {
		return hue.Sensor{}, h.getErr
	}
	s, ok := h.sensors[id]
	if !ok {
		return hue.Sensor{}, hue.ErrNotFound
	}
	return s.Clone(), nil
}

func (h *MockHub) UpdateSensorState(_ context.Context, s hue.Sensor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.updateErr != nil {
		return h.updateErr
	}
	h.updates = append(h.updates, s.Clone())
	stored := h.sensors[s.ID]
	stored.State = s.Clone().State
	h.sensors[s.ID] = stored
	return nil
}

func (h *MockHub) GetUpdates() []hue.Sensor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hue.Sensor(nil), h.updates...)
}

func (h *MockHub) GetCalls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.getCalls...)
}

func (h *MockHub) ListCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listCalls
}

func (h *MockHub) SetListErr(err error) {
	h.mu.Lock()
	h.listErr = err
	h.mu.Unlock()
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mockSink records readings.
type mockSink struct {
	mu       sync.Mutex
	readings []mockReading
}

type mockReading struct {
	ID, Type, Name string
	Value          any
	TS             time.Time
}

func (s *mockSink) WriteSensorReading(id, typ, name string, value any, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, mockReading{ID: id, Type: typ, Name: name, Value: value, TS: ts})
}

func (s *mockSink) get() []mockReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mockReading(nil), s.readings...)
}

// mockLogger counts entries per level.
type mockLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *mockLogger) Debug(string, ...any) {}
func (l *mockLogger) Info(string, ...any)  {}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) counts() (warns, errs int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns), len(l.errors)
}

// Test fixtures.

func temperatureSensor(id string) hue.Sensor {
	return hue.Sensor{
		ID:    id,
		Type:  hue.TypeTemperature,
		Name:  "Hallway",
		State: map[string]any{"temperature": 2150.0, "lastupdated": "2024-03-01T12:00:00"},
		Raw:   json.RawMessage(`{"state":{"temperature":2150,"lastupdated":"2024-03-01T12:00:00"},"type":"ZLLTemperature","name":"Hallway"}`),
	}
}

func statusSensor(id string) hue.Sensor {
	return hue.Sensor{
		ID:    id,
		Type:  hue.TypeGenericStatus,
		Name:  "Mode",
		State: map[string]any{"status": 1.0, "lastupdated": "2024-03-01T08:00:00"},
		Raw:   json.RawMessage(`{"state":{"status":1,"lastupdated":"2024-03-01T08:00:00"},"type":"CLIPGenericStatus","name":"Mode"}`),
	}
}

func presenceSensor(id string) hue.Sensor {
	return hue.Sensor{
		ID:    id,
		Type:  hue.TypePresence,
		Name:  "Hall motion",
		State: map[string]any{"presence": false, "lastupdated": "2024-03-01T09:00:00"},
		Raw:   json.RawMessage(`{"state":{"presence":false,"lastupdated":"2024-03-01T09:00:00"},"type":"ZLLPresence","name":"Hall motion"}`),
	}
}

func newTestBridge(hub *MockHub, client *MockMQTTClient, modify func(*Options)) *Bridge {
	opts := Options{
		Hub:            hub,
		MQTT:           client,
		Topics:         mqtt.NewTopics("hue-sensors"),
		PollInterval:   time.Hour,
		RequestTimeout: time.Second,
		Commands:       true,
	}
	if modify != nil {
		modify(&opts)
	}
	b, err := NewBridge(opts)
	if err != nil {
		panic(err)
	}
	return b
}
