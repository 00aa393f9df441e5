package helmet

import (
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/alert"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/mqtt"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/sensor"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/config"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/loop"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/schedule"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// SensorsConfig carries the per-sensor scheduling policies.
	SensorsConfig = schedule.Config
	// HardwareConfig names the buses and pins of the fitted sensors.
	HardwareConfig = sensor.Config
	// MQTTConfig configures the broker transport.
	MQTTConfig = mqtt.Config
	// AlertConfig configures the buzzer output.
	AlertConfig = alert.Config
	// LoopConfig configures control-loop cadence and status intervals.
	LoopConfig = loop.Config
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
