package bridge

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/nerrad567/hue-mqtt-sensors/internal/hue"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/mqtt"
)

func TestPublisher_Publish(t *testing.T) {
	client := NewMockMQTTClient()
	b := newTestBridge(NewMockHub(), client, func(o *Options) {
		o.Topics = mqtt.NewTopics("P")
		o.QoS = 1
		o.Retain = true
	})

	b.publisher.Publish(temperatureSensor("5"))

	published := client.GetPublished()
	if len(published) != 1 {
		t.Fatalf("published %d messages, want 1", len(published))
	}

	msg := published[0]
	if msg.Topic != "P/status/ZLLTemperature/5" {
		t.Errorf("topic = %q, want %q", msg.Topic, "P/status/ZLLTemperature/5")
	}
	if msg.QoS != 1 || !msg.Retained {
		t.Errorf("qos/retained = %d/%v, want 1/true", msg.QoS, msg.Retained)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if len(body) != 3 {
		t.Errorf("payload keys = %d, want exactly val, ts, payload", len(body))
	}
	for _, key := range []string{"val", "ts", "payload"} {
		if _, ok := body[key]; !ok {
			t.Errorf("payload missing key %q", key)
		}
	}
	if string(body["val"]) != "2150" {
		t.Errorf("val = %s, want 2150", body["val"])
	}
	if string(body["ts"]) != `"2024-03-01T12:00:00"` {
		t.Errorf("ts = %s", body["ts"])
	}

	if m := b.GetMetrics(); m.Published != 1 || m.PublishErrors != 0 {
		t.Errorf("metrics published/errors = %d/%d, want 1/0", m.Published, m.PublishErrors)
	}
}

func TestPublisher_Idempotent(t *testing.T) {
	client := NewMockMQTTClient()
	b := newTestBridge(NewMockHub(), client, nil)

	s := temperatureSensor("5")
	before := s.Clone()

	b.publisher.Publish(s)
	b.publisher.Publish(s)

	published := client.GetPublished()
	if len(published) != 2 {
		t.Fatalf("published %d messages, want 2", len(published))
	}
	if published[0].Topic != published[1].Topic || !bytes.Equal(published[0].Payload, published[1].Payload) {
		t.Errorf("repeated publish differs:\n%s\n%s", published[0].Payload, published[1].Payload)
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("Publish modified the sensor")
	}
}

func TestPublisher_FailureIsolated(t *testing.T) {
	client := NewMockMQTTClient()
	logger := &mockLogger{}
	b := newTestBridge(NewMockHub(), client, func(o *Options) { o.Logger = logger })

	client.FailTopic("hue-sensors/status/ZLLTemperature/5")

	b.publisher.PublishAll([]hue.Sensor{temperatureSensor("5"), presenceSensor("7")})

	published := client.GetPublished()
	if len(published) != 1 || published[0].Topic != "hue-sensors/status/ZLLPresence/7" {
		t.Fatalf("published = %+v, want only the presence sensor", published)
	}

	m := b.GetMetrics()
	if m.Published != 1 || m.PublishErrors != 1 {
		t.Errorf("metrics published/errors = %d/%d, want 1/1", m.Published, m.PublishErrors)
	}
	if warns, _ := logger.counts(); warns != 1 {
		t.Errorf("warnings logged = %d, want 1", warns)
	}
}

func TestPublisher_RecordsReadings(t *testing.T) {
	client := NewMockMQTTClient()
	sink := &mockSink{}
	b := newTestBridge(NewMockHub(), client, func(o *Options) { o.Sink = sink })

	noReading := hue.Sensor{ID: "11", Type: "ZLLSwitch", State: map[string]any{"buttonevent": 1002.0}}
	b.publisher.PublishAll([]hue.Sensor{temperatureSensor("5"), noReading})

	readings := sink.get()
	if len(readings) != 1 {
		t.Fatalf("readings = %d, want 1", len(readings))
	}

	r := readings[0]
	if r.ID != "5" || r.Type != "ZLLTemperature" || r.Name != "Hallway" || r.Value != 2150.0 {
		t.Errorf("reading = %+v", r)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !r.TS.Equal(want) {
		t.Errorf("reading ts = %v, want %v", r.TS, want)
	}
}

func TestPublisher_RecordsNowWithoutTimestamp(t *testing.T) {
	sink := &mockSink{}
	b := newTestBridge(NewMockHub(), NewMockMQTTClient(), func(o *Options) { o.Sink = sink })

	s := presenceSensor("7")
	s.State["lastupdated"] = "none"

	before := time.Now()
	b.publisher.Publish(s)

	readings := sink.get()
	if len(readings) != 1 {
		t.Fatalf("readings = %d, want 1", len(readings))
	}
	if readings[0].TS.Before(before) {
		t.Errorf("reading ts = %v, want now", readings[0].TS)
	}
}
