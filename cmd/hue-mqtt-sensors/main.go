// Hue MQTT Sensors - Philips Hue sensor bridge for MQTT
//
// This is the main entry point for the bridge. It polls the sensors of one
// Hue hub, publishes their state under a topic prefix, and applies set
// commands received on the bus.
//
// Configuration is read from configs/config.yaml, or the path in
// HUE_SENSORS_CONFIG, with HUE_SENSORS_* environment overrides.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/hue-mqtt-sensors/internal/api"
	"github.com/nerrad567/hue-mqtt-sensors/internal/bridge"
	"github.com/nerrad567/hue-mqtt-sensors/internal/hue"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/config"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/influxdb"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/logging"
	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting hue-mqtt-sensors",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	defer func() {
		if closeErr := log.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "closing log output: %v\n", closeErr)
		}
	}()
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"hub_mode", cfg.Hub.Mode,
	)

	// Connect to InfluxDB (optional). Opened before MQTT so it closes after
	// the MQTT client has waited for in-flight command handlers.
	influxClient, err := connectInfluxDB(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.With("component", "mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", cfg.MQTT.URL,
		"client_id", mqttClient.ClientID(),
		"prefix", cfg.MQTT.Prefix,
	)

	// Open hub session
	session, err := hue.Open(ctx, cfg.Hub, log.With("component", "hue"))
	if err != nil {
		return fmt.Errorf("opening hub session: %w", err)
	}
	log.Info("hub session ready", "mode", cfg.Hub.Mode)

	opts := bridge.Options{
		Hub:            session,
		MQTT:           mqttClient,
		Topics:         mqttClient.Topics(),
		PollInterval:   cfg.GetPollInterval(),
		RequestTimeout: cfg.GetRequestTimeout(),
		ErrorPolicy:    errorPolicy(cfg.Poll.OnError),
		QoS:            byte(cfg.MQTT.QoS),
		Retain:         cfg.MQTT.Retain,
		Commands:       cfg.Bridge.Commands,
		Logger:         log.With("component", "bridge"),
	}
	if influxClient != nil {
		opts.Sink = influxClient
	}

	b, err := bridge.NewBridge(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:  cfg.API,
			Logger:  log.With("component", "api"),
			Bridge:  b,
			HubMode: cfg.Hub.Mode,
			Version: version,
			Checks:  map[string]api.HealthChecker{"mqtt": mqttClient},
		}
		if influxClient != nil {
			deps.Checks["influxdb"] = influxClient
			deps.Sink = influxClient
		}
		srv, srvErr := api.New(deps)
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(gctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		g.Go(func() error {
			<-gctx.Done()
			return srv.Close()
		})
	}

	g.Go(func() error {
		return b.Run(gctx)
	})

	log.Info("hue-mqtt-sensors running")

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("hue-mqtt-sensors stopped")
	return nil
}

// connectInfluxDB connects the reading history sink. It returns a nil
// client when InfluxDB is disabled.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}

	client.SetOnError(func(err error) {
		log.Warn("InfluxDB write failed", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.URL, "bucket", cfg.Bucket)
	return client, nil
}

// errorPolicy maps the poll.on_error setting to a bridge policy.
func errorPolicy(onError string) bridge.ErrorPolicy {
	if onError == config.OnErrorExit {
		return bridge.PolicyExit
	}
	return bridge.PolicyLog
}

// getConfigPath returns the configuration file path.
// Uses HUE_SENSORS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HUE_SENSORS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
