// Package config handles loading and validating hue-mqtt-sensors configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with HUE_SENSORS_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Broker passwords and Hue Remote API tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - MQTTConfig and RemoteHubConfig mask secrets in String() and MarshalJSON
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Prefix)
package config
