// Package alert drives the emergency buzzer.
package alert

import (
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

type Config struct {
	Enabled bool   `yaml:"enabled"`
	Pin     string `yaml:"pin"`
}

// Buzzer is the continuous alert output. Activate drives the pin high and
// there is deliberately no way to drive it low again; the sound stops when
// the helmet is power-cycled, mirroring the latch it is slaved to.
type Buzzer struct {
	pin  gpio.PinOut
	once sync.Once
}

func NewBuzzer(pin gpio.PinOut) *Buzzer {
	return &Buzzer{pin: pin}
}

func (b *Buzzer) Activate() {
	b.once.Do(func() {
		// Out failure is unrecoverable and there is no one to report to;
		// the published emergency messages are the fallback signal.
		_ = b.pin.Out(gpio.High)
	})
}

// Nop stands in when no buzzer is fitted.
type Nop struct{}

func (Nop) Activate() {}

var (
	_ ports.Alert = (*Buzzer)(nil)
	_ ports.Alert = Nop{}
)
