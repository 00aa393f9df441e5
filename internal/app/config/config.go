// Package config loads the helmet configuration file and fans it out to the
// subsystem configs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/alert"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/mqtt"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/sensor"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/loop"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/schedule"
)

type Config struct {
	Sensors  schedule.Config `yaml:"sensors"`
	Hardware sensor.Config   `yaml:"hardware"`
	MQTT     mqtt.Config     `yaml:"mqtt"`
	Alert    alert.Config    `yaml:"alert"`
	Loop     loop.Config     `yaml:"loop"`
	Metrics  MetricsConfig   `yaml:"metrics"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Sensors.ApplyDefaults()
	c.Hardware.ApplyDefaults()
	c.MQTT.ApplyDefaults()
	c.Loop.ApplyDefaults()

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
}

func (c *Config) validate() error {
	if err := c.Sensors.Validate(); err != nil {
		return fmt.Errorf("sensors config: %w", err)
	}
	if err := c.Hardware.Validate(); err != nil {
		return fmt.Errorf("hardware config: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt config: %w", err)
	}
	if c.Alert.Enabled && c.Alert.Pin == "" {
		return fmt.Errorf("alert.pin is required when alert is enabled")
	}
	return nil
}
