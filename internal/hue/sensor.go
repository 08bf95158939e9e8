package hue

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"time"

	"github.com/amimof/huego"
)

// SensorType is the hub's type tag for a sensor.
type SensorType string

// Sensor types with a primary reading.
const (
	TypeTemperature   SensorType = "ZLLTemperature"
	TypeDaylight      SensorType = "Daylight"
	TypePresence      SensorType = "ZLLPresence"
	TypeLightLevel    SensorType = "ZLLLightLevel"
	TypeGenericStatus SensorType = "CLIPGenericStatus"
)

// timestampLayout is the hub's lastupdated format (UTC, no zone).
const timestampLayout = "2006-01-02T15:04:05"

// Sensor is a snapshot of one hub sensor.
//
// Sensors are fetched fresh for every poll and command; the hub owns
// the live state.
type Sensor struct {
	ID      string
	Type    SensorType
	Name    string
	ModelID string
	State   map[string]any
	Config  map[string]any

	// Raw is the sensor's JSON document as returned by the hub.
	Raw json.RawMessage
}

// LastUpdated returns the state's lastupdated value, or "" when absent.
func (s Sensor) LastUpdated() string {
	v, _ := s.State["lastupdated"].(string)
	return v
}

// Clone returns a copy whose State, Config and Raw do not alias s.
func (s Sensor) Clone() Sensor {
	c := s
	c.State = maps.Clone(s.State)
	c.Config = maps.Clone(s.Config)
	if s.Raw != nil {
		c.Raw = append(json.RawMessage(nil), s.Raw...)
	}
	return c
}

// ParseTimestamp parses a lastupdated value. The hub reports "none" for
// sensors that never updated, which yields false.
func ParseTimestamp(v string) (time.Time, bool) {
	t, err := time.ParseInLocation(timestampLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WritableState returns the state body accepted by
// PUT /sensors/{id}/state. Only CLIPGenericStatus has one; its status is
// sent as an integer.
func WritableState(s Sensor) (map[string]any, error) {
	if s.Type != TypeGenericStatus {
		return nil, fmt.Errorf("hue: sensor type %s has no writable state", s.Type)
	}

	var status int
	switch v := s.State["status"].(type) {
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, v)
		}
		status = n
	case float64:
		if v != float64(int(v)) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, v)
		}
		status = int(v)
	case int:
		status = v
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, v)
	}

	return map[string]any{"status": status}, nil
}

// fromHuego converts a decoded huego sensor; raw is the hub's document.
func fromHuego(hs huego.Sensor, raw json.RawMessage) Sensor {
	return Sensor{
		ID:      strconv.Itoa(hs.ID),
		Type:    SensorType(hs.Type),
		Name:    hs.Name,
		ModelID: hs.ModelID,
		State:   hs.State,
		Config:  hs.Config,
		Raw:     raw,
	}
}

// parseSensorID converts a sensor id to the hub's numeric form.
func parseSensorID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSensorID, id)
	}
	return n, nil
}

// sortByID orders sensors by numeric id, the order the hub lists them in.
func sortByID(sensors []Sensor) {
	sort.SliceStable(sensors, func(i, j int) bool {
		a, errA := strconv.Atoi(sensors[i].ID)
		b, errB := strconv.Atoi(sensors[j].ID)
		if errA != nil || errB != nil {
			return sensors[i].ID < sensors[j].ID
		}
		return a < b
	})
}
