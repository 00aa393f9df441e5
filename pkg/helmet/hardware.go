package helmet

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/alert"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/sensor"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// hardware holds the adapters constructed from the enabled config sections,
// plus the buses they share.
type hardware struct {
	sensors  map[domain.SensorKind]ports.Sensor
	alert    ports.Alert
	wear     ports.Wear
	triggers []trigger
	closers  []func() error

	bus i2c.BusCloser
	adc *ads1x15.Dev
}

var adcChannels = [...]ads1x15.Channel{
	ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3,
}

// buildHardware constructs adapters for every enabled hardware section that
// was not overridden. A capability backed by an override never touches the
// bus, so a fully-overridden runtime needs no hardware at all.
func buildHardware(cfg *Config, ov *runtimeOverrides) (*hardware, error) {
	cfg.Hardware.ApplyDefaults()
	cfg.Sensors.ApplyDefaults()

	h := &hardware{
		sensors: make(map[domain.SensorKind]ports.Sensor, len(ov.sensors)),
		alert:   ov.alert,
		wear:    ov.wear,
	}
	for kind, s := range ov.sensors {
		h.sensors[kind] = s
	}

	needGas := cfg.Hardware.Gas.Enabled && h.sensors[domain.KindGas] == nil
	needTemperature := cfg.Hardware.Temperature.Enabled && h.sensors[domain.KindTemperature] == nil
	needGPS := cfg.Hardware.GPS.Enabled && h.sensors[domain.KindLocation] == nil
	needPulse := cfg.Hardware.Pulse.Enabled && h.sensors[domain.KindPulse] == nil
	needMotion := cfg.Hardware.Motion.Enabled
	needImpact := cfg.Hardware.Impact.Enabled
	needWear := cfg.Hardware.Wear.Enabled && h.wear == nil
	needBuzzer := cfg.Alert.Enabled && h.alert == nil

	if !needGas && !needTemperature && !needGPS && !needPulse &&
		!needMotion && !needImpact && !needWear && !needBuzzer {
		if h.alert == nil {
			h.alert = alert.Nop{}
		}
		return h, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	if needGas || needTemperature || needPulse || needMotion {
		bus, err := i2creg.Open(cfg.Hardware.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("i2c open: %w", err)
		}
		h.bus = bus
		h.closers = append(h.closers, bus.Close)
	}

	if needGas || needTemperature {
		adc, err := ads1x15.NewADS1115(h.bus, &ads1x15.DefaultOpts)
		if err != nil {
			h.close()
			return nil, fmt.Errorf("ads1115: %w", err)
		}
		h.adc = adc
	}

	if needGas {
		power, err := outPin(cfg.Hardware.Gas.PowerPin)
		if err == nil {
			var pin analog.PinADC
			pin, err = h.adcPin(cfg.Hardware.Gas.ADCChannel)
			if err == nil {
				warmUp := time.Duration(cfg.Sensors.Gas.WarmUpSeconds) * time.Second
				h.sensors[domain.KindGas] = sensor.NewGas(pin, power, warmUp)
			}
		}
		if err != nil {
			h.close()
			return nil, fmt.Errorf("gas sensor: %w", err)
		}
	}

	if needTemperature {
		pin, err := h.adcPin(cfg.Hardware.Temperature.ADCChannel)
		if err != nil {
			h.close()
			return nil, fmt.Errorf("temperature sensor: %w", err)
		}
		h.sensors[domain.KindTemperature] = sensor.NewThermistor(pin,
			cfg.Hardware.Temperature.Beta,
			cfg.Hardware.Temperature.R0,
			cfg.Hardware.Temperature.RFixed)
	}

	if needGPS {
		var power gpio.PinOut
		if cfg.Hardware.GPS.PowerPin != "" {
			var err error
			power, err = outPin(cfg.Hardware.GPS.PowerPin)
			if err != nil {
				h.close()
				return nil, fmt.Errorf("gps: %w", err)
			}
		}
		h.sensors[domain.KindLocation] = sensor.NewGPS(cfg.Hardware.GPS.Port, cfg.Hardware.GPS.BaudRate, power)
	}

	if needPulse {
		p, err := sensor.NewPulse(h.bus, cfg.Hardware.Pulse.Address)
		if err != nil {
			h.close()
			return nil, fmt.Errorf("pulse sensor: %w", err)
		}
		h.sensors[domain.KindPulse] = p
	}

	if needMotion {
		pin, err := inPin(cfg.Hardware.Motion.InterruptPin)
		if err != nil {
			h.close()
			return nil, fmt.Errorf("motion sensor: %w", err)
		}
		m, err := sensor.NewMotion(h.bus, cfg.Hardware.Motion.Address, pin,
			cfg.Hardware.Motion.FreeFallThreshold, cfg.Hardware.Motion.FreeFallDuration)
		if err != nil {
			h.close()
			return nil, fmt.Errorf("motion sensor: %w", err)
		}
		h.triggers = append(h.triggers, trigger{watch: m.Watch, cause: domain.CauseFreeFall})
	}

	if needImpact {
		pin, err := inPin(cfg.Hardware.Impact.Pin)
		if err == nil {
			var t *sensor.ImpactTrigger
			t, err = sensor.NewImpactTrigger(pin)
			if err == nil {
				h.triggers = append(h.triggers, trigger{watch: t.Watch, cause: domain.CauseImpact})
			}
		}
		if err != nil {
			h.close()
			return nil, fmt.Errorf("impact trigger: %w", err)
		}
	}

	if needWear {
		pin, err := inPin(cfg.Hardware.Wear.Pin)
		if err == nil {
			var w *sensor.WearSwitch
			w, err = sensor.NewWearSwitch(pin)
			if err == nil {
				h.wear = w
			}
		}
		if err != nil {
			h.close()
			return nil, fmt.Errorf("wear switch: %w", err)
		}
	}

	if needBuzzer {
		pin, err := outPin(cfg.Alert.Pin)
		if err != nil {
			h.close()
			return nil, fmt.Errorf("alert: %w", err)
		}
		h.alert = alert.NewBuzzer(pin)
	}
	if h.alert == nil {
		h.alert = alert.Nop{}
	}

	return h, nil
}

func (h *hardware) adcPin(channel int) (analog.PinADC, error) {
	if channel < 0 || channel >= len(adcChannels) {
		return nil, fmt.Errorf("adc channel %d out of range", channel)
	}
	return h.adc.PinForChannel(adcChannels[channel], 3300*physic.MilliVolt, 128*physic.Hertz, ads1x15.SaveEnergy)
}

// close releases the buses after a failed construction; errors at that
// point have nowhere useful to go.
func (h *hardware) close() {
	for _, c := range h.closers {
		_ = c()
	}
}

func outPin(name string) (gpio.PinOut, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return pin, nil
}

func inPin(name string) (gpio.PinIn, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return pin, nil
}
