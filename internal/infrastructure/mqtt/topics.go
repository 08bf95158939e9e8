package mqtt

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "hue-sensors"

// Topics builds the bridge's MQTT topics under a configurable prefix.
//
//	topics := mqtt.NewTopics("hue-sensors")
//	topics.SensorStatus("ZLLTemperature", "5")
//	// Returns: "hue-sensors/status/ZLLTemperature/5"
type Topics struct {
	Prefix string
}

// NewTopics returns a topic builder for prefix, falling back to DefaultPrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{Prefix: prefix}
}

// SensorStatus returns the status topic for a sensor.
//
// Example: hue-sensors/status/ZLLPresence/12
func (t Topics) SensorStatus(sensorType, id string) string {
	return t.Prefix + "/status/" + sensorType + "/" + id
}

// BridgeStatus returns the retained availability topic ("online"/"offline").
//
// Example: hue-sensors/bridge/status
func (t Topics) BridgeStatus() string {
	return t.Prefix + "/bridge/status"
}

// SetCommands returns the subscription covering every set command.
//
// Pattern: hue-sensors/set/#
func (t Topics) SetCommands() string {
	return t.Prefix + "/set/#"
}

// FunctionPattern returns the named pattern that splits an inbound topic
// into its function and the remaining levels. Use with Match.
//
// Pattern: hue-sensors/+function/#
func (t Topics) FunctionPattern() string {
	return t.Prefix + "/+function/#"
}

// SetPattern returns the named pattern for set commands. Use with Match.
//
// Pattern: hue-sensors/set/+type/+id
func (t Topics) SetPattern() string {
	return t.Prefix + "/set/+type/+id"
}
