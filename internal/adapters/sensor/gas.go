package sensor

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// Gas reads an MQ2 on an ADS1115 channel. The heater draws too much for
// continuous duty, so the power pin stays low between acquisitions and the
// scheduler pays the warm-up cost each time.
type Gas struct {
	pin    analog.PinADC
	power  gpio.PinOut
	warmUp time.Duration
}

func NewGas(pin analog.PinADC, power gpio.PinOut, warmUp time.Duration) *Gas {
	return &Gas{pin: pin, power: power, warmUp: warmUp}
}

func (g *Gas) PowerOn() error {
	if err := g.power.Out(gpio.High); err != nil {
		return fmt.Errorf("gas power pin: %w", err)
	}
	return nil
}

func (g *Gas) PowerOff() error {
	if err := g.power.Out(gpio.Low); err != nil {
		return fmt.Errorf("gas power pin: %w", err)
	}
	return nil
}

func (g *Gas) WarmUp() time.Duration {
	return g.warmUp
}

// Acquire returns the raw ADC count; the scheduler owns averaging and the
// threshold classification.
func (g *Gas) Acquire(ctx context.Context) (*domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sample, err := g.pin.Read()
	if err != nil {
		return nil, fmt.Errorf("gas adc read: %w", err)
	}
	return &domain.Reading{Value: float64(sample.Raw)}, nil
}

var _ ports.Sensor = (*Gas)(nil)
