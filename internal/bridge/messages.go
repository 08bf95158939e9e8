package bridge

import (
	"encoding/json"

	"github.com/nerrad567/hue-mqtt-sensors/internal/hue"
)

// emptyPayload stands in for sensors without a raw document.
var emptyPayload = json.RawMessage(`{}`)

// StatusMessage is published on {prefix}/status/{type}/{id}.
//
// Example:
//
//	{"val":2150,"ts":"2024-03-01T12:00:00","payload":{"state":{...},"type":"ZLLTemperature",...}}
type StatusMessage struct {
	// Value is the primary reading, null when the type has none.
	Value any `json:"val"`

	// Timestamp is the hub's lastupdated value.
	Timestamp string `json:"ts"`

	// Payload is the sensor document as returned by the hub.
	Payload json.RawMessage `json:"payload"`
}

// NewStatusMessage builds the status message for a sensor snapshot.
func NewStatusMessage(s hue.Sensor) StatusMessage {
	value, _ := ReadValue(s)

	payload := s.Raw
	if len(payload) == 0 || !json.Valid(payload) {
		payload = emptyPayload
	}

	return StatusMessage{
		Value:     value,
		Timestamp: s.LastUpdated(),
		Payload:   payload,
	}
}
