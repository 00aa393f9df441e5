// Package sensor implements the hardware sensor adapters behind the
// scheduler's capability port: MQ2 gas, NTC thermistor, NEO-6M GPS,
// MAX30100 pulse oximeter, and the MPU6050/force-pin interrupt sources.
package sensor

import "fmt"

// Config names the buses and pins each fitted sensor uses. A section left
// disabled means the helmet simply does not carry that sensor; the core
// models it as an absent adapter.
type Config struct {
	// I2CBus selects the bus by name; empty means the first available.
	I2CBus string `yaml:"i2c_bus"`

	Gas         GasPins         `yaml:"gas"`
	Temperature TemperaturePins `yaml:"temperature"`
	GPS         GPSPins         `yaml:"gps"`
	Pulse       PulsePins       `yaml:"pulse"`
	Motion      MotionPins      `yaml:"motion"`
	Impact      ImpactPins      `yaml:"impact"`
	Wear        WearPins        `yaml:"wear"`
}

type GasPins struct {
	Enabled    bool   `yaml:"enabled"`
	PowerPin   string `yaml:"power_pin"`
	ADCChannel int    `yaml:"adc_channel"`
}

type TemperaturePins struct {
	Enabled    bool    `yaml:"enabled"`
	ADCChannel int     `yaml:"adc_channel"`
	Beta       float64 `yaml:"beta"`
	R0         float64 `yaml:"r0"`
	RFixed     float64 `yaml:"r_fixed"`
}

type GPSPins struct {
	Enabled  bool   `yaml:"enabled"`
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	PowerPin string `yaml:"power_pin"`
}

type PulsePins struct {
	Enabled bool   `yaml:"enabled"`
	Address uint16 `yaml:"address"`
}

type MotionPins struct {
	Enabled           bool   `yaml:"enabled"`
	Address           uint16 `yaml:"address"`
	InterruptPin      string `yaml:"interrupt_pin"`
	FreeFallThreshold uint8  `yaml:"free_fall_threshold"`
	FreeFallDuration  uint8  `yaml:"free_fall_duration"`
}

type ImpactPins struct {
	Enabled bool   `yaml:"enabled"`
	Pin     string `yaml:"pin"`
}

type WearPins struct {
	Enabled bool   `yaml:"enabled"`
	Pin     string `yaml:"pin"`
}

func (c *Config) ApplyDefaults() {
	if c.Temperature.Beta == 0 {
		c.Temperature.Beta = 3950
	}
	if c.Temperature.R0 == 0 {
		c.Temperature.R0 = 10000
	}
	if c.Temperature.RFixed == 0 {
		c.Temperature.RFixed = 5800
	}
	if c.Temperature.ADCChannel == 0 && c.Gas.ADCChannel == 0 && c.Gas.Enabled && c.Temperature.Enabled {
		c.Temperature.ADCChannel = 1
	}
	if c.GPS.BaudRate == 0 {
		c.GPS.BaudRate = 9600
	}
	if c.Pulse.Address == 0 {
		c.Pulse.Address = 0x57
	}
	if c.Motion.Address == 0 {
		c.Motion.Address = 0x68
	}
	if c.Motion.FreeFallThreshold == 0 {
		c.Motion.FreeFallThreshold = 0x10
	}
	if c.Motion.FreeFallDuration == 0 {
		c.Motion.FreeFallDuration = 0x05
	}
}

func (c *Config) Validate() error {
	if c.Gas.Enabled && c.Gas.PowerPin == "" {
		return fmt.Errorf("gas.power_pin is required when gas is enabled")
	}
	if c.GPS.Enabled && c.GPS.Port == "" {
		return fmt.Errorf("gps.port is required when gps is enabled")
	}
	if c.Motion.Enabled && c.Motion.InterruptPin == "" {
		return fmt.Errorf("motion.interrupt_pin is required when motion is enabled")
	}
	if c.Impact.Enabled && c.Impact.Pin == "" {
		return fmt.Errorf("impact.pin is required when impact is enabled")
	}
	if c.Wear.Enabled && c.Wear.Pin == "" {
		return fmt.Errorf("wear.pin is required when wear detection is enabled")
	}
	return nil
}
