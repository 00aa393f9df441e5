package helmet

import (
	base "github.com/PlsGelpME/Smart-Safety-Helmet/pkg/helmet"
)

// Type aliases so consumers can import github.com/PlsGelpME/Smart-Safety-Helmet directly.
type (
	Config         = base.Config
	SensorsConfig  = base.SensorsConfig
	HardwareConfig = base.HardwareConfig
	MQTTConfig     = base.MQTTConfig
	AlertConfig    = base.AlertConfig
	LoopConfig     = base.LoopConfig
	MetricsConfig  = base.MetricsConfig

	Runtime = base.Runtime
	Option  = base.Option

	Reading        = base.Reading
	Fix            = base.Fix
	Vitals         = base.Vitals
	SensorKind     = base.SensorKind
	ReadingStatus  = base.ReadingStatus
	EmergencyCause = base.EmergencyCause
	Latch          = base.Latch

	Sensor        = base.Sensor
	Sender        = base.Sender
	Alert         = base.Alert
	Wear          = base.Wear
	Clock         = base.Clock
	Observability = base.Observability
	Field         = base.Field
)

const (
	KindPulse       = base.KindPulse
	KindLocation    = base.KindLocation
	KindGas         = base.KindGas
	KindTemperature = base.KindTemperature

	CauseFreeFall = base.CauseFreeFall
	CauseImpact   = base.CauseImpact

	StatusOnline    = base.StatusOnline
	StatusWarning   = base.StatusWarning
	StatusError     = base.StatusError
	StatusEmergency = base.StatusEmergency
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func NewLatch() *Latch {
	return base.NewLatch()
}

func WithSender(s Sender) Option {
	return base.WithSender(s)
}

func WithSensor(kind SensorKind, s Sensor) Option {
	return base.WithSensor(kind, s)
}

func WithAlert(a Alert) Option {
	return base.WithAlert(a)
}

func WithWear(w Wear) Option {
	return base.WithWear(w)
}

func WithClock(c Clock) Option {
	return base.WithClock(c)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

func WithLatch(l *Latch) Option {
	return base.WithLatch(l)
}
