// Package influxdb provides InfluxDB connectivity for hue-mqtt-sensors.
//
// It wraps the official influxdb-client-go v2 library and records every
// published sensor reading as history, next to the MQTT status stream.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history is optional
//	}
//	defer client.Close()
//
//	client.WriteSensorReading("5", "ZLLTemperature", "Hallway", 2150.0, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered to the
// SetOnError callback. Connection and health check errors are returned directly.
package influxdb
