package sensor

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
)

// MPU6050 registers.
const (
	mpuRegPwrMgmt1  = 0x6B
	mpuRegIntPinCfg = 0x37
	mpuRegIntEnable = 0x38
	mpuRegIntStatus = 0x3A
	mpuRegFFThr     = 0x1D
	mpuRegFFDur     = 0x1E
	mpuRegWhoAmI    = 0x75

	mpuWhoAmI     = 0x68
	mpuIntLatched = 0x20 // active low, latched until status read
	mpuIntFF      = 0x80
)

const edgePoll = time.Second

// Motion configures an MPU6050 for hardware free-fall detection and turns
// its interrupt line into latch records. The accelerometer itself does the
// g-force math; this adapter only programs thresholds and watches the pin.
type Motion struct {
	dev    *i2c.Dev
	intPin gpio.PinIn
}

func NewMotion(bus i2c.Bus, addr uint16, intPin gpio.PinIn, threshold, duration uint8) (*Motion, error) {
	m := &Motion{dev: &i2c.Dev{Bus: bus, Addr: addr}, intPin: intPin}

	id, err := m.readReg(mpuRegWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("mpu6050 who_am_i: %w", err)
	}
	if id != mpuWhoAmI {
		return nil, fmt.Errorf("mpu6050 not found, who_am_i 0x%02x", id)
	}

	if err := m.writeReg(mpuRegPwrMgmt1, 0x00); err != nil {
		return nil, fmt.Errorf("mpu6050 wake: %w", err)
	}
	time.Sleep(100 * time.Millisecond)

	steps := []struct{ reg, val byte }{
		{mpuRegIntPinCfg, mpuIntLatched},
		{mpuRegFFThr, threshold},
		{mpuRegFFDur, duration},
		{mpuRegIntEnable, mpuIntFF},
	}
	for _, s := range steps {
		if err := m.writeReg(s.reg, s.val); err != nil {
			return nil, fmt.Errorf("mpu6050 config reg 0x%02x: %w", s.reg, err)
		}
	}

	if err := intPin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("mpu6050 interrupt pin: %w", err)
	}
	return m, nil
}

// Watch blocks on the interrupt line and invokes fn for each falling edge
// until the context is cancelled. fn must be interrupt-safe; wiring it to
// Latch.Record is the intended use.
func (m *Motion) Watch(ctx context.Context, fn func()) {
	watchEdges(ctx, m.intPin, fn)
}

func (m *Motion) writeReg(reg, val byte) error {
	return m.dev.Tx([]byte{reg, val}, nil)
}

func (m *Motion) readReg(reg byte) (byte, error) {
	var buf [1]byte
	if err := m.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ImpactTrigger watches the force-sensor comparator pin. There is no chip
// to configure; a hit pulls the line low.
type ImpactTrigger struct {
	pin gpio.PinIn
}

func NewImpactTrigger(pin gpio.PinIn) (*ImpactTrigger, error) {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("impact pin: %w", err)
	}
	return &ImpactTrigger{pin: pin}, nil
}

func (t *ImpactTrigger) Watch(ctx context.Context, fn func()) {
	watchEdges(ctx, t.pin, fn)
}

// watchEdges polls WaitForEdge with a bounded timeout so cancellation is
// honored within one poll interval.
func watchEdges(ctx context.Context, pin gpio.PinIn, fn func()) {
	for {
		if ctx.Err() != nil {
			return
		}
		if pin.WaitForEdge(edgePoll) {
			fn()
		}
	}
}
