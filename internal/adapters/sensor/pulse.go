package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// MAX30100 registers.
const (
	pulseRegFIFOWrPtr = 0x04
	pulseRegOvfCnt    = 0x05
	pulseRegFIFORdPtr = 0x06
	pulseRegFIFOData  = 0x07
	pulseRegFIFOCfg   = 0x08
	pulseRegModeCfg   = 0x09
	pulseRegLED1      = 0x0C // IR
	pulseRegLED2      = 0x0D // red
	pulseRegPartID    = 0xFF

	pulseModeSpO2     = 0x03
	pulseModeShutdown = 0x80
	pulseModeReset    = 0x40
	pulseLEDCurrent   = 0x08 // 27.1 mA
	pulsePartID       = 0x11

	pulseSampleRate = 100 // Hz
	pulseWindow     = 256
	pulseSampleGap  = 10 * time.Millisecond
)

// Pulse drives a MAX30100 pulse oximeter. Power control is the chip's own
// shutdown bit: PowerOn brings it into SpO2 mode, PowerOff parks it.
type Pulse struct {
	dev *i2c.Dev
}

func NewPulse(bus i2c.Bus, addr uint16) (*Pulse, error) {
	p := &Pulse{dev: &i2c.Dev{Bus: bus, Addr: addr}}

	if err := p.writeReg(pulseRegModeCfg, pulseModeReset); err != nil {
		return nil, fmt.Errorf("max30100 reset: %w", err)
	}
	time.Sleep(100 * time.Millisecond)

	id, err := p.readReg(pulseRegPartID)
	if err != nil {
		return nil, fmt.Errorf("max30100 part id: %w", err)
	}
	if id != pulsePartID {
		return nil, fmt.Errorf("max30100 not found, part id 0x%02x", id)
	}

	// FIFO rollover on, SpO2 mode, both LEDs at 27mA, pointers cleared.
	steps := []struct{ reg, val byte }{
		{pulseRegFIFOCfg, 0x40},
		{pulseRegModeCfg, pulseModeSpO2},
		{pulseRegLED1, pulseLEDCurrent},
		{pulseRegLED2, pulseLEDCurrent},
		{pulseRegFIFOWrPtr, 0x00},
		{pulseRegOvfCnt, 0x00},
		{pulseRegFIFORdPtr, 0x00},
	}
	for _, s := range steps {
		if err := p.writeReg(s.reg, s.val); err != nil {
			return nil, fmt.Errorf("max30100 init reg 0x%02x: %w", s.reg, err)
		}
	}
	return p, nil
}

func (p *Pulse) PowerOn() error {
	if err := p.writeReg(pulseRegModeCfg, pulseModeSpO2); err != nil {
		return fmt.Errorf("max30100 wake: %w", err)
	}
	return nil
}

func (p *Pulse) PowerOff() error {
	if err := p.writeReg(pulseRegModeCfg, pulseModeShutdown); err != nil {
		return fmt.Errorf("max30100 shutdown: %w", err)
	}
	return nil
}

func (p *Pulse) WarmUp() time.Duration {
	return 100 * time.Millisecond
}

// Acquire samples the FIFO for one analysis window and derives heart rate
// and SpO2 from it. A finger-off sensor produces a flat signal and is
// rejected as unavailable rather than published as zeros.
func (p *Pulse) Acquire(ctx context.Context) (*domain.Reading, error) {
	ir := make([]float64, 0, pulseWindow)
	red := make([]float64, 0, pulseWindow)

	for len(ir) < pulseWindow {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		irv, redv, err := p.readFIFO()
		if err != nil {
			return nil, err
		}
		ir = append(ir, irv)
		red = append(red, redv)
		time.Sleep(pulseSampleGap)
	}

	hr := heartRate(ir, pulseSampleRate)
	spo2 := spO2(ir, red)
	if hr == 0 || spo2 == 0 {
		return nil, errors.New("max30100: no pulse signal")
	}
	return &domain.Reading{Vitals: &domain.Vitals{HeartRate: hr, SpO2: spo2}}, nil
}

func (p *Pulse) readFIFO() (ir, red float64, err error) {
	var buf [4]byte
	if err := p.dev.Tx([]byte{pulseRegFIFOData}, buf[:]); err != nil {
		return 0, 0, fmt.Errorf("max30100 fifo read: %w", err)
	}
	ir = float64(uint16(buf[0])<<8 | uint16(buf[1]))
	red = float64(uint16(buf[2])<<8 | uint16(buf[3]))
	return ir, red, nil
}

func (p *Pulse) writeReg(reg, val byte) error {
	return p.dev.Tx([]byte{reg, val}, nil)
}

func (p *Pulse) readReg(reg byte) (byte, error) {
	var buf [1]byte
	if err := p.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// heartRate counts pulse peaks in the IR window and scales by the window
// duration. The peak threshold sits halfway between the mean and the
// window maximum so the large DC component of a raw PPG signal does not
// swallow the AC swing. Result clamps to a plausible human range; a flat
// window reports 0.
func heartRate(ir []float64, sampleRate int) int {
	if len(ir) < 10 {
		return 0
	}
	min, max, sum := ir[0], ir[0], 0.0
	for _, v := range ir {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(ir))
	threshold := mean + (max-mean)/2

	peaks := 0
	for i := 1; i < len(ir)-1; i++ {
		if ir[i] > ir[i-1] && ir[i] > ir[i+1] && ir[i] > threshold {
			peaks++
		}
	}
	if peaks < 2 {
		return 0
	}
	window := float64(len(ir)) / float64(sampleRate)
	bpm := float64(peaks) * (60.0 / window)
	return clampInt(int(bpm+0.5), 40, 180)
}

// spO2 uses the standard ratio-of-ratios estimate over the AC/DC
// components of both LEDs.
func spO2(ir, red []float64) int {
	if len(ir) < 10 || len(red) < 10 {
		return 0
	}
	irAC, irDC := acdc(ir)
	redAC, redDC := acdc(red)
	if irAC == 0 || irDC == 0 || redDC == 0 {
		return 0
	}
	ratio := (redAC / redDC) / (irAC / irDC)
	return clampInt(int(110-25*ratio+0.5), 70, 100)
}

func acdc(v []float64) (ac, dc float64) {
	min, max, sum := v[0], v[0], 0.0
	for _, x := range v {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
		sum += x
	}
	return max - min, sum / float64(len(v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ ports.Sensor = (*Pulse)(nil)
