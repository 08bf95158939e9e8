package bridge

import "github.com/nerrad567/hue-mqtt-sensors/internal/hue"

// valueField names the state field holding a sensor type's primary reading.
type valueField struct {
	key      string
	settable bool
}

// sensorFields maps each known sensor type to its primary reading.
var sensorFields = map[hue.SensorType]valueField{
	hue.TypeTemperature:   {key: "temperature"},
	hue.TypeDaylight:      {key: "daylight"},
	hue.TypePresence:      {key: "presence"},
	hue.TypeLightLevel:    {key: "lightlevel"},
	hue.TypeGenericStatus: {key: "status", settable: true},
}

// ReadValue returns the sensor's primary reading. It reports false for
// unknown sensor types and for readings missing from the state.
func ReadValue(s hue.Sensor) (any, bool) {
	field, ok := sensorFields[s.Type]
	if !ok {
		return nil, false
	}
	v, ok := s.State[field.key]
	return v, ok
}

// ApplyValue returns the sensor with raw written to its settable field.
// Sensors without a settable field are returned unchanged. The input is
// never modified.
func ApplyValue(s hue.Sensor, raw []byte) hue.Sensor {
	field, ok := sensorFields[s.Type]
	if !ok || !field.settable {
		return s
	}

	updated := s.Clone()
	if updated.State == nil {
		updated.State = make(map[string]any, 1)
	}
	updated.State[field.key] = string(raw)
	return updated
}

// Settable reports whether sensors of type t accept values.
func Settable(t hue.SensorType) bool {
	return sensorFields[t].settable
}
