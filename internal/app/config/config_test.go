package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
sensors:
  gas:
    warning_threshold: 1200
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Sensors.Pulse.IntervalSeconds != 60 {
		t.Fatalf("expected pulse interval default 60, got %d", cfg.Sensors.Pulse.IntervalSeconds)
	}
	if cfg.Sensors.Gas.WarningThreshold != 1200 {
		t.Fatalf("expected explicit warning threshold 1200, got %.0f", cfg.Sensors.Gas.WarningThreshold)
	}
	if cfg.Sensors.Gas.AlarmThreshold != 2500 {
		t.Fatalf("expected alarm threshold default 2500, got %.0f", cfg.Sensors.Gas.AlarmThreshold)
	}
	if cfg.MQTT.ClientIDPrefix != "helmet" {
		t.Fatalf("expected client ID prefix default helmet, got %s", cfg.MQTT.ClientIDPrefix)
	}
	if cfg.Loop.StatusIntervalSeconds != 60 {
		t.Fatalf("expected status interval default 60, got %d", cfg.Loop.StatusIntervalSeconds)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Hardware.GPS.BaudRate != 9600 {
		t.Fatalf("expected gps baud default 9600, got %d", cfg.Hardware.GPS.BaudRate)
	}
}

func TestLoadRejectsMissingBroker(t *testing.T) {
	path := writeConfig(t, `
loop:
  tick_seconds: 1
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a config without mqtt.broker_url")
	}
}

func TestLoadRejectsInvalidSensorConfig(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
sensors:
  gas:
    operating_hours: [18, 8]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an inverted operating-hours window")
	}
}

func TestLoadRejectsEnabledAlertWithoutPin(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
alert:
  enabled: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an enabled alert without a pin")
	}
}
