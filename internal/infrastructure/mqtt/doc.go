// Package mqtt provides MQTT client connectivity for hue-mqtt-sensors.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - An availability topic backed by Last Will and Testament
//   - The bridge's topic convention and named-wildcard pattern matching
//
// # Topics
//
// Every topic lives under a configurable prefix (default "hue-sensors"):
//
//	{prefix}/status/{sensorType}/{sensorId}   sensor status, published
//	{prefix}/set/{sensorType}/{sensorId}      set commands, subscribed via {prefix}/set/#
//	{prefix}/bridge/status                    "online" / "offline", retained
//
// Inbound topics are parsed with Match, which understands named wildcards
// such as "+type" and "#rest".
//
// # Security Considerations
//
//   - Use an mqtts:// or ssl:// URL for brokers outside the local host
//   - Credentials are validated against broker ACL
//   - The broker password is never logged
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.Subscribe(topics.SetCommands(), 0,
//	    func(topic string, payload []byte) error {
//	        params, ok := mqtt.Match(topics.SetPattern(), topic)
//	        ...
//	    })
package mqtt
