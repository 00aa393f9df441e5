package sensor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

const gpsReadTimeout = time.Second

var errNoFix = errors.New("no valid gps fix")

// GPS drives a NEO-6M over UART. The receiver is power-cycled per
// acquisition; after power-on it needs a boot delay before NMEA output is
// worth reading, surfaced as the warm-up.
type GPS struct {
	portName string
	baud     int
	power    gpio.PinOut // nil when the receiver is always powered

	port serial.Port
	rest []byte
}

func NewGPS(portName string, baud int, power gpio.PinOut) *GPS {
	return &GPS{portName: portName, baud: baud, power: power}
}

func (g *GPS) PowerOn() error {
	if g.power != nil {
		if err := g.power.Out(gpio.High); err != nil {
			return fmt.Errorf("gps power pin: %w", err)
		}
	}
	port, err := serial.Open(g.portName, &serial.Mode{BaudRate: g.baud})
	if err != nil {
		return fmt.Errorf("gps open %s: %w", g.portName, err)
	}
	if err := port.SetReadTimeout(gpsReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("gps read timeout: %w", err)
	}
	g.port = port
	g.rest = nil
	return nil
}

func (g *GPS) PowerOff() error {
	var errs []error
	if g.port != nil {
		if err := g.port.Close(); err != nil {
			errs = append(errs, err)
		}
		g.port = nil
	}
	if g.power != nil {
		if err := g.power.Out(gpio.Low); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *GPS) WarmUp() time.Duration {
	return 1500 * time.Millisecond
}

// Acquire reads NMEA sentences until a GGA sentence with a real fix shows
// up or the context expires. Getting a first fix can take most of a
// minute from cold, which is why the scheduler caches the result.
func (g *GPS) Acquire(ctx context.Context) (*domain.Reading, error) {
	if g.port == nil {
		return nil, errors.New("gps not powered")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", errNoFix, err)
		}
		line, err := g.readLine(ctx)
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		fix, ok := parseGGA(line)
		if ok {
			return &domain.Reading{Fix: fix}, nil
		}
	}
}

// readLine accumulates serial bytes into whole sentences. A read timeout
// yields an empty line so the caller can re-check its deadline.
func (g *GPS) readLine(ctx context.Context) (string, error) {
	for {
		if i := bytes.IndexByte(g.rest, '\n'); i >= 0 {
			line := strings.TrimSpace(string(g.rest[:i]))
			g.rest = g.rest[i+1:]
			return line, nil
		}
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", errNoFix, err)
		}

		buf := make([]byte, 256)
		n, err := g.port.Read(buf)
		if err != nil {
			return "", fmt.Errorf("gps read: %w", err)
		}
		if n == 0 {
			// read timeout; surface an empty line to re-check the deadline
			return "", nil
		}
		g.rest = append(g.rest, buf[:n]...)
	}
}

// parseGGA extracts a position from a GGA sentence. Quality 0 means the
// receiver has no fix yet; coordinates keep their hemisphere suffix and
// altitude keeps its unit, matching the published payload shape.
func parseGGA(line string) (*domain.Fix, bool) {
	if !strings.HasPrefix(line, "$GPGGA") && !strings.HasPrefix(line, "$GNGGA") {
		return nil, false
	}
	if i := strings.IndexByte(line, '*'); i >= 0 {
		line = line[:i]
	}
	parts := strings.Split(line, ",")
	if len(parts) < 11 {
		return nil, false
	}
	if parts[6] == "0" || parts[6] == "" {
		return nil, false
	}
	if parts[2] == "" || parts[4] == "" {
		return nil, false
	}
	return &domain.Fix{
		Latitude:  parts[2] + " " + parts[3],
		Longitude: parts[4] + " " + parts[5],
		Altitude:  parts[9] + " " + parts[10],
	}, true
}

var _ ports.Sensor = (*GPS)(nil)
