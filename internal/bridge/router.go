package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/hue-mqtt-sensors/internal/hue"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/mqtt"
)

// functionSet is the command function that changes a sensor value.
const functionSet = "set"

// Router dispatches inbound command topics.
//
// Topics are matched against {prefix}/+function/#; "set" commands must
// also match {prefix}/set/+type/+id. Anything else is dropped.
type Router struct {
	hub       Hub
	publisher *Publisher
	topics    mqtt.Topics
	timeout   time.Duration
	stats     *stats
	logger    Logger

	// onHubError receives hub failures for the bridge's error policy.
	onHubError func(msg string, err error)
}

// HandleMessage processes one inbound message. Unrecognised topics return
// nil; hub failures are returned after being handed to the error policy.
func (r *Router) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	params, ok := mqtt.Match(r.topics.FunctionPattern(), topic)
	if !ok {
		r.drop(topic)
		return nil
	}

	if params["function"] != functionSet {
		r.logger.Debug("ignoring command function", "topic", topic, "function", params["function"])
		return nil
	}

	params, ok = mqtt.Match(r.topics.SetPattern(), topic)
	if !ok || params["id"] == "" {
		r.drop(topic)
		return nil
	}

	r.stats.commands.Add(1)
	if err := r.set(ctx, params["type"], params["id"], payload); err != nil {
		r.stats.commandErrors.Add(1)
		if r.onHubError != nil {
			r.onHubError("set command failed", err)
		}
		return err
	}
	return nil
}

// set applies a value to a sensor and re-publishes it.
//
// The sensor is looked up by id; the type level of the topic is
// informational only.
func (r *Router) set(ctx context.Context, topicType, id string, payload []byte) error {
	sensor, err := callHub(ctx, r.timeout, func(ctx context.Context) (hue.Sensor, error) {
		return r.hub.GetSensor(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("getting sensor %s: %w", id, err)
	}

	if topicType != string(sensor.Type) {
		r.logger.Debug("set topic type differs from sensor type",
			"id", id, "topic_type", topicType, "sensor_type", sensor.Type)
	}

	if Settable(sensor.Type) {
		updated := ApplyValue(sensor, payload)
		_, err := callHub(ctx, r.timeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.hub.UpdateSensorState(ctx, updated)
		})
		if err != nil {
			return fmt.Errorf("updating sensor %s: %w", id, err)
		}
		r.logger.Info("sensor value set", "id", id, "type", sensor.Type, "value", string(payload))
	} else {
		r.logger.Debug("sensor type is read-only", "id", id, "type", sensor.Type)
	}

	refreshed, err := callHub(ctx, r.timeout, func(ctx context.Context) (hue.Sensor, error) {
		return r.hub.GetSensor(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("refreshing sensor %s: %w", id, err)
	}

	r.publisher.Publish(refreshed)
	return nil
}

func (r *Router) drop(topic string) {
	r.stats.dropped.Add(1)
	r.logger.Debug("dropping unrecognised topic", "topic", topic)
}
