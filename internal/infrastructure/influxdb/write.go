package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// sensorMeasurement is the measurement every sensor reading is written to.
const sensorMeasurement = "hue_sensor"

// WriteSensorReading records one sensor reading.
//
// The write is non-blocking; points are batched and sent asynchronously.
// Readings that have no field representation (nil or unsupported types)
// are skipped.
//
// Tags: sensor_id, sensor_type, name
// Fields: value (numbers), state (booleans) or text (strings)
//
// Example:
//
//	client.WriteSensorReading("5", "ZLLTemperature", "Hallway", 2150.0, ts)
func (c *Client) WriteSensorReading(sensorID, sensorType, name string, value any, ts time.Time) {
	point, ok := sensorPoint(sensorID, sensorType, name, value, ts)
	if !ok {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(point)
}

// sensorPoint builds the point for a reading.
func sensorPoint(sensorID, sensorType, name string, value any, ts time.Time) (*write.Point, bool) {
	fields, ok := readingFields(value)
	if !ok {
		return nil, false
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := map[string]string{
		"sensor_id":   sensorID,
		"sensor_type": sensorType,
	}
	if name != "" {
		tags["name"] = name
	}

	return write.NewPoint(sensorMeasurement, tags, fields, ts), true
}

// readingFields maps a scalar reading onto a typed field. Each Go kind
// gets its own field key so a field never changes type across writes.
func readingFields(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case bool:
		return map[string]any{"state": v}, true
	case string:
		return map[string]any{"text": v}, true
	case float64:
		return map[string]any{"value": v}, true
	case float32:
		return map[string]any{"value": float64(v)}, true
	case int:
		return map[string]any{"value": float64(v)}, true
	case int64:
		return map[string]any{"value": float64(v)}, true
	default:
		return nil, false
	}
}
