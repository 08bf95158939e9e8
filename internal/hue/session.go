package hue

import (
	"context"
	"fmt"

	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/config"
)

// Session is an authenticated connection to one hub.
type Session interface {
	ListSensors(ctx context.Context) ([]Sensor, error)
	GetSensor(ctx context.Context, id string) (Sensor, error)
	UpdateSensorState(ctx context.Context, s Sensor) error
}

// Logger is the logging surface used during session setup.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Open returns a session for the configured hub mode.
func Open(ctx context.Context, cfg config.HubConfig, logger Logger) (Session, error) {
	switch cfg.Mode {
	case config.HubModeLocal:
		return OpenLocal(ctx, cfg.Local, logger)
	case config.HubModeRemote:
		return OpenRemote(ctx, cfg.Remote), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}
