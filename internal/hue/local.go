package hue

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amimof/huego"

	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/config"
)

// Local is a session with a bridge on the local network.
//
// huego finds and pairs with the bridge. Sensor reads and state writes use
// the REST API so the hub's documents and error replies come through as-is.
type Local struct {
	rest *restClient
}

// OpenLocal connects to a bridge on the LAN.
//
// With no host configured the bridge is located through the Hue discovery
// endpoint. With no username configured a new user is created; the
// bridge's link button must have been pressed shortly before.
func OpenLocal(ctx context.Context, cfg config.LocalHubConfig, logger Logger) (*Local, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	host := cfg.Host
	if host == "" {
		found, err := huego.Discover()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
		}
		host = found.Host
		logger.Info("discovered hue bridge", "host", host, "bridge_id", found.ID)
	}

	bridge := huego.New(host, cfg.Username)

	if cfg.Username == "" {
		user, err := bridge.CreateUserContext(ctx, cfg.DeviceType)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPairingFailed, hubError(err))
		}
		bridge = bridge.Login(user)
		logger.Warn("paired with hue bridge; set hub.local.username to reuse this user",
			"host", host,
			"username", user,
		)
	}

	return newLocal(bridge, http.DefaultClient), nil
}

func newLocal(bridge *huego.Bridge, httpClient *http.Client) *Local {
	return &Local{
		rest: newRESTClient(httpClient, localAPIURL(bridge.Host, bridge.User)),
	}
}

// localAPIURL returns the v1 API root for a bridge host and user.
func localAPIURL(host, user string) string {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/") + "/api/" + user
}

// ListSensors returns every sensor on the bridge, ordered by id.
func (l *Local) ListSensors(ctx context.Context) ([]Sensor, error) {
	return l.rest.listSensors(ctx)
}

// GetSensor returns one sensor.
func (l *Local) GetSensor(ctx context.Context, id string) (Sensor, error) {
	return l.rest.getSensor(ctx, id)
}

// UpdateSensorState pushes the sensor's writable state to the bridge.
func (l *Local) UpdateSensorState(ctx context.Context, s Sensor) error {
	state, err := WritableState(s)
	if err != nil {
		return err
	}
	return l.rest.putSensorState(ctx, s.ID, state)
}
