package schedule

import "fmt"

// Config carries the per-sensor scheduling policies. All intervals are in
// seconds to match the on-device configuration files.
type Config struct {
	Pulse       PulseConfig       `yaml:"pulse"`
	Location    LocationConfig    `yaml:"location"`
	Gas         GasConfig         `yaml:"gas"`
	Temperature TemperatureConfig `yaml:"temperature"`

	// RetryOnFailure lets a failed acquisition keep its schedule slot so
	// the next tick retries immediately. Off by default: responsiveness is
	// traded for battery life.
	RetryOnFailure bool `yaml:"retry_on_failure"`
}

type PulseConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

type LocationConfig struct {
	IntervalSeconds         int `yaml:"interval_seconds"`
	CacheTTLSeconds         int `yaml:"cache_ttl_seconds"`
	NormalTimeoutSeconds    int `yaml:"normal_timeout_seconds"`
	EmergencyTimeoutSeconds int `yaml:"emergency_timeout_seconds"`
}

type GasConfig struct {
	IntervalSeconds  int     `yaml:"interval_seconds"`
	OperatingHours   [2]int  `yaml:"operating_hours"`
	WarmUpSeconds    int     `yaml:"warm_up_seconds"`
	WarningThreshold float64 `yaml:"warning_threshold"`
	AlarmThreshold   float64 `yaml:"alarm_threshold"`
	Samples          int     `yaml:"samples"`
}

type TemperatureConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	AlertThreshold  float64 `yaml:"alert_threshold"`
	Samples         int     `yaml:"samples"`
}

func (c *Config) ApplyDefaults() {
	if c.Pulse.IntervalSeconds <= 0 {
		c.Pulse.IntervalSeconds = 60
	}
	if c.Location.IntervalSeconds <= 0 {
		c.Location.IntervalSeconds = 300
	}
	if c.Location.CacheTTLSeconds <= 0 {
		c.Location.CacheTTLSeconds = 300
	}
	if c.Location.NormalTimeoutSeconds <= 0 {
		c.Location.NormalTimeoutSeconds = 45
	}
	if c.Location.EmergencyTimeoutSeconds <= 0 {
		c.Location.EmergencyTimeoutSeconds = 90
	}
	if c.Gas.IntervalSeconds <= 0 {
		c.Gas.IntervalSeconds = 3600
	}
	if c.Gas.OperatingHours == [2]int{} {
		c.Gas.OperatingHours = [2]int{8, 18}
	}
	if c.Gas.WarmUpSeconds <= 0 {
		c.Gas.WarmUpSeconds = 15
	}
	if c.Gas.WarningThreshold <= 0 {
		c.Gas.WarningThreshold = 1500
	}
	if c.Gas.AlarmThreshold <= 0 {
		c.Gas.AlarmThreshold = 2500
	}
	if c.Gas.Samples <= 0 {
		c.Gas.Samples = 10
	}
	if c.Temperature.IntervalSeconds <= 0 {
		c.Temperature.IntervalSeconds = 300
	}
	if c.Temperature.AlertThreshold <= 0 {
		c.Temperature.AlertThreshold = 39
	}
	if c.Temperature.Samples <= 0 {
		c.Temperature.Samples = 1
	}
}

func (c *Config) Validate() error {
	start, end := c.Gas.OperatingHours[0], c.Gas.OperatingHours[1]
	if start < 0 || start > 23 || end < 1 || end > 24 || start >= end {
		return fmt.Errorf("gas.operating_hours (%d,%d) is not a valid daily window", start, end)
	}
	if c.Gas.WarningThreshold >= c.Gas.AlarmThreshold {
		return fmt.Errorf("gas.warning_threshold %.0f must be below alarm_threshold %.0f",
			c.Gas.WarningThreshold, c.Gas.AlarmThreshold)
	}
	if c.Location.EmergencyTimeoutSeconds < c.Location.NormalTimeoutSeconds {
		return fmt.Errorf("location.emergency_timeout_seconds %d must be at least normal_timeout_seconds %d",
			c.Location.EmergencyTimeoutSeconds, c.Location.NormalTimeoutSeconds)
	}
	return nil
}
