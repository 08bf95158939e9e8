package hue

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/config"
)

// Remote is a session with a bridge through the Hue Remote API.
//
// Requests carry an OAuth2 bearer token that is refreshed automatically
// from the configured refresh token.
type Remote struct {
	rest *restClient
}

// OpenRemote builds a Remote API session from stored tokens.
//
// ctx scopes token refreshes and should live as long as the session.
func OpenRemote(ctx context.Context, cfg config.RemoteHubConfig) *Remote {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	token := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
	}
	if cfg.RefreshToken != "" {
		// Stored access tokens have no known expiry; refresh on first use.
		token.Expiry = time.Now()
	}

	return newRemote(oauthCfg.Client(ctx, token), cfg.BaseURL, cfg.BridgeUsername)
}

func newRemote(httpClient *http.Client, baseURL, bridgeUsername string) *Remote {
	return &Remote{
		rest: newRESTClient(httpClient, strings.TrimRight(baseURL, "/")+"/"+bridgeUsername),
	}
}

// ListSensors returns every sensor on the bridge, ordered by id.
func (r *Remote) ListSensors(ctx context.Context) ([]Sensor, error) {
	return r.rest.listSensors(ctx)
}

// GetSensor returns one sensor.
func (r *Remote) GetSensor(ctx context.Context, id string) (Sensor, error) {
	return r.rest.getSensor(ctx, id)
}

// UpdateSensorState pushes the sensor's writable state to the bridge.
func (r *Remote) UpdateSensorState(ctx context.Context, s Sensor) error {
	state, err := WritableState(s)
	if err != nil {
		return err
	}
	return r.rest.putSensorState(ctx, s.ID, state)
}
