package domain

import "time"

// SensorKind enumerates every sensor the helmet knows about. The set is
// fixed at compile time; a helmet without one of them carries a nil adapter
// handle for that kind.
type SensorKind int

const (
	KindPulse SensorKind = iota
	KindLocation
	KindGas
	KindTemperature
)

// ScheduleOrder is the fixed priority in which due sensors are processed
// within one tick: vital signs before location before environmental.
var ScheduleOrder = []SensorKind{KindPulse, KindLocation, KindGas, KindTemperature}

func (k SensorKind) String() string {
	switch k {
	case KindPulse:
		return "pulse"
	case KindLocation:
		return "location"
	case KindGas:
		return "gas"
	case KindTemperature:
		return "temperature"
	default:
		return "unknown"
	}
}

// Status classifies a threshold-bearing reading.
type Status int

const (
	StatusNormal Status = iota
	StatusWarning
	StatusAlarm
)

func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "WARNING"
	case StatusAlarm:
		return "ALARM"
	default:
		return "NORMAL"
	}
}

// Fix is one GPS position. Coordinates keep the hemisphere suffix and
// altitude keeps its unit, exactly as they come off the receiver.
type Fix struct {
	Latitude  string
	Longitude string
	Altitude  string
}

// Vitals is one pulse-oximeter acquisition.
type Vitals struct {
	HeartRate int
	SpO2      int
}

// Reading is the canonical unit of helmet telemetry. Exactly one of the
// kind-specific members is meaningful: Value for gas and temperature, Fix
// for location, Vitals for pulse. A Reading lives for one tick; it is
// produced by an acquisition and consumed by the publishing pipeline.
type Reading struct {
	Kind      SensorKind
	Value     float64
	Status    Status
	Fix       *Fix
	Vitals    *Vitals
	Cached    bool
	Timestamp time.Time
}

// EmergencyCause identifies which interrupt source tripped the latch first.
type EmergencyCause int

const (
	CauseFreeFall EmergencyCause = iota + 1
	CauseImpact
)

func (c EmergencyCause) String() string {
	switch c {
	case CauseFreeFall:
		return "FREE_FALL"
	case CauseImpact:
		return "IMPACT"
	default:
		return "UNKNOWN"
	}
}
