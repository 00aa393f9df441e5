package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// WearSwitch reads the chin-strap contact. The strap closes the contact and
// pulls the line high; low means the helmet is not being worn properly.
type WearSwitch struct {
	pin gpio.PinIn
}

func NewWearSwitch(pin gpio.PinIn) (*WearSwitch, error) {
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("wear pin: %w", err)
	}
	return &WearSwitch{pin: pin}, nil
}

func (w *WearSwitch) Fastened() bool {
	return w.pin.Read() == gpio.High
}

var _ ports.Wear = (*WearSwitch)(nil)
