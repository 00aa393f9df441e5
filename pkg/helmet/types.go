package helmet

import (
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/pipeline"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/latch"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// Type aliases so embedders can work with the domain model and swap in their
// own adapters without reaching into internal packages.
type (
	Reading        = domain.Reading
	Fix            = domain.Fix
	Vitals         = domain.Vitals
	SensorKind     = domain.SensorKind
	ReadingStatus  = domain.Status
	EmergencyCause = domain.EmergencyCause
	Latch          = latch.Latch

	Sensor        = ports.Sensor
	Sender        = ports.Sender
	Alert         = ports.Alert
	Wear          = ports.Wear
	Clock         = ports.Clock
	Observability = ports.Observability
	Field         = ports.Field
)

const (
	KindPulse       = domain.KindPulse
	KindLocation    = domain.KindLocation
	KindGas         = domain.KindGas
	KindTemperature = domain.KindTemperature

	CauseFreeFall = domain.CauseFreeFall
	CauseImpact   = domain.CauseImpact

	StatusOnline    = pipeline.StatusOnline
	StatusWarning   = pipeline.StatusWarning
	StatusError     = pipeline.StatusError
	StatusEmergency = pipeline.StatusEmergency
)

// NewLatch builds a standalone emergency latch, typically to share between a
// Runtime and a caller-owned interrupt source.
func NewLatch() *Latch {
	return latch.New()
}
