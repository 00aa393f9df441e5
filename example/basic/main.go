// Simulated helmet: no hardware, no broker. Every adapter is injected, the
// published payloads go to stdout, and an emergency is staged after 15
// seconds through the shared latch.
package main

import (
	"context"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	helmet "github.com/PlsGelpME/Smart-Safety-Helmet"
)

func main() {
	cfg := &helmet.Config{
		MQTT:    helmet.MQTTConfig{BrokerURL: "tcp://unused:1883"},
		Loop:    helmet.LoopConfig{TickSeconds: 1, StatusIntervalSeconds: 10},
		Metrics: helmet.MetricsConfig{Addr: ":9100"},
	}
	cfg.Sensors.Pulse.IntervalSeconds = 5
	cfg.Sensors.Temperature.IntervalSeconds = 8
	cfg.Sensors.Location.IntervalSeconds = 12

	latch := helmet.NewLatch()

	rt, err := helmet.NewRuntime(cfg,
		helmet.WithLatch(latch),
		helmet.WithSender(&stdoutSender{}),
		helmet.WithAlert(&logAlert{}),
		helmet.WithSensor(helmet.KindPulse, &simSensor{kind: helmet.KindPulse}),
		helmet.WithSensor(helmet.KindTemperature, &simSensor{kind: helmet.KindTemperature}),
		helmet.WithSensor(helmet.KindLocation, &simSensor{kind: helmet.KindLocation}),
	)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	// Simulated fall.
	time.AfterFunc(15*time.Second, func() {
		log.Println("simulating a free fall")
		latch.Record(helmet.CauseFreeFall)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("helmet runtime exited: %v", err)
	}
}

type stdoutSender struct{}

func (s *stdoutSender) Send(topicSuffix string, payload []byte) bool {
	log.Printf("publish %-20s %s", topicSuffix, payload)
	return true
}

func (s *stdoutSender) IsConnected() bool { return true }

type logAlert struct{}

func (a *logAlert) Activate() { log.Println("BUZZER ON") }

type simSensor struct {
	kind helmet.SensorKind
}

func (s *simSensor) PowerOn() error        { return nil }
func (s *simSensor) PowerOff() error       { return nil }
func (s *simSensor) WarmUp() time.Duration { return 0 }

func (s *simSensor) Acquire(context.Context) (*helmet.Reading, error) {
	switch s.kind {
	case helmet.KindPulse:
		return &helmet.Reading{Vitals: &helmet.Vitals{
			HeartRate: 60 + rand.Intn(40),
			SpO2:      95 + rand.Intn(5),
		}}, nil
	case helmet.KindLocation:
		return &helmet.Reading{Fix: &helmet.Fix{
			Latitude:  "5230.123 N",
			Longitude: "01322.456 E",
			Altitude:  "34.0 M",
		}}, nil
	default:
		return &helmet.Reading{Value: 36.5 + rand.Float64()}, nil
	}
}
