package sensor

import (
	"context"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

const (
	thermistorVRef    = 3.3
	thermistorT0      = 298.15 // 25C in Kelvin
	thermistorSamples = 25
	thermistorGap     = 10 * time.Millisecond
)

// Thermistor converts an NTC voltage-divider reading to degrees Celsius
// with the beta form of the Steinhart-Hart equation. The divider is wired
// to the always-on rail; there is nothing to power-cycle.
type Thermistor struct {
	pin    analog.PinADC
	beta   float64
	r0     float64
	rFixed float64
}

func NewThermistor(pin analog.PinADC, beta, r0, rFixed float64) *Thermistor {
	return &Thermistor{pin: pin, beta: beta, r0: r0, rFixed: rFixed}
}

func (t *Thermistor) PowerOn() error        { return nil }
func (t *Thermistor) PowerOff() error       { return nil }
func (t *Thermistor) WarmUp() time.Duration { return 0 }

func (t *Thermistor) Acquire(ctx context.Context) (*domain.Reading, error) {
	var sum float64
	for i := 0; i < thermistorSamples; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sample, err := t.pin.Read()
		if err != nil {
			return nil, fmt.Errorf("thermistor adc read: %w", err)
		}
		sum += float64(sample.V) / float64(physic.Volt)
		if i < thermistorSamples-1 {
			time.Sleep(thermistorGap)
		}
	}

	celsius, err := t.convert(sum / thermistorSamples)
	if err != nil {
		return nil, err
	}
	return &domain.Reading{Value: celsius}, nil
}

func (t *Thermistor) convert(volts float64) (float64, error) {
	if volts <= 0 || volts >= thermistorVRef {
		return 0, fmt.Errorf("thermistor voltage %.3fV outside divider range", volts)
	}
	rNTC := t.rFixed * (thermistorVRef - volts) / volts
	kelvin := 1 / ((1 / thermistorT0) + (1/t.beta)*math.Log(rNTC/t.r0))
	return kelvin - 273.15, nil
}

var _ ports.Sensor = (*Thermistor)(nil)
