package bridge

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/hue-mqtt-sensors/internal/hue"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/mqtt"
)

// Publisher emits sensor status messages.
//
// Publishing is fire-and-forget: failures are logged and counted, never
// returned, so one sensor's failure cannot affect another's.
type Publisher struct {
	client MQTTClient
	topics mqtt.Topics
	qos    byte
	retain bool
	sink   ReadingSink
	stats  *stats
	logger Logger
}

// Publish sends one sensor's status message.
func (p *Publisher) Publish(s hue.Sensor) {
	topic := p.topics.SensorStatus(string(s.Type), s.ID)
	msg := NewStatusMessage(s)

	payload, err := json.Marshal(msg)
	if err != nil {
		p.stats.publishErrors.Add(1)
		p.logger.Warn("encoding status message failed", "topic", topic, "error", err)
		return
	}

	if err := p.client.Publish(topic, payload, p.qos, p.retain); err != nil {
		p.stats.publishErrors.Add(1)
		p.logger.Warn("publishing sensor status failed", "topic", topic, "error", err)
	} else {
		p.stats.published.Add(1)
		p.logger.Debug("published sensor status", "topic", topic)
	}

	p.record(s, msg.Value)
}

// PublishAll publishes every sensor in order.
func (p *Publisher) PublishAll(sensors []hue.Sensor) {
	for _, s := range sensors {
		p.Publish(s)
	}
}

// record writes the reading to the history sink, if one is configured.
func (p *Publisher) record(s hue.Sensor, value any) {
	if p.sink == nil || value == nil {
		return
	}

	ts, ok := hue.ParseTimestamp(s.LastUpdated())
	if !ok {
		ts = time.Now()
	}
	p.sink.WriteSensorReading(s.ID, string(s.Type), s.Name, value, ts)
}
