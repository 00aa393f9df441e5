package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

func TestPublishGasShape(t *testing.T) {
	sender := &fakeSender{connected: true, ok: true}
	p := newTestPublisher(sender)

	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	ok := p.PublishReading(&domain.Reading{
		Kind:      domain.KindGas,
		Value:     1820,
		Status:    domain.StatusWarning,
		Timestamp: at,
	})
	if !ok {
		t.Fatalf("publish must succeed with a connected sender")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(sender.sent))
	}
	if sender.sent[0].topic != TopicGas {
		t.Fatalf("unexpected topic %q", sender.sent[0].topic)
	}

	var got map[string]any
	if err := json.Unmarshal(sender.sent[0].payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got["value"] != 1820.0 || got["status"] != "WARNING" || got["unit"] != "adc" {
		t.Fatalf("unexpected gas payload: %v", got)
	}
	if got["timestamp"] != float64(at.Unix()) {
		t.Fatalf("timestamp %v, want %v", got["timestamp"], float64(at.Unix()))
	}
}

func TestPublishLocationAndVitalsShapes(t *testing.T) {
	sender := &fakeSender{connected: true, ok: true}
	p := newTestPublisher(sender)

	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	p.PublishReading(&domain.Reading{
		Kind:      domain.KindLocation,
		Fix:       &domain.Fix{Latitude: "4717.11 N", Longitude: "00833.91 E", Altitude: "545.4 M"},
		Timestamp: at,
	})
	p.PublishReading(&domain.Reading{
		Kind:      domain.KindPulse,
		Vitals:    &domain.Vitals{HeartRate: 72, SpO2: 98},
		Timestamp: at,
	})

	if len(sender.sent) != 2 {
		t.Fatalf("expected two messages, got %d", len(sender.sent))
	}
	if sender.sent[0].topic != TopicLocation || sender.sent[1].topic != TopicPulse {
		t.Fatalf("unexpected topics: %q %q", sender.sent[0].topic, sender.sent[1].topic)
	}

	var loc map[string]any
	if err := json.Unmarshal(sender.sent[0].payload, &loc); err != nil {
		t.Fatalf("unmarshal location: %v", err)
	}
	if loc["latitude"] != "4717.11 N" || loc["longitude"] != "00833.91 E" || loc["altitude"] != "545.4 M" {
		t.Fatalf("unexpected location payload: %v", loc)
	}

	var vit map[string]any
	if err := json.Unmarshal(sender.sent[1].payload, &vit); err != nil {
		t.Fatalf("unmarshal vitals: %v", err)
	}
	if vit["heart_rate"] != 72.0 || vit["spo2"] != 98.0 {
		t.Fatalf("unexpected vitals payload: %v", vit)
	}
}

func TestPublishStatusOmitsEmptyMessage(t *testing.T) {
	sender := &fakeSender{connected: true, ok: true}
	p := newTestPublisher(sender)

	if !p.PublishStatus(StatusOnline, "") {
		t.Fatalf("status publish failed")
	}

	var got map[string]any
	if err := json.Unmarshal(sender.sent[0].payload, &got); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if got["status"] != "online" {
		t.Fatalf("unexpected status payload: %v", got)
	}
	if _, present := got["message"]; present {
		t.Fatalf("empty message must be omitted, got %v", got)
	}
}

func TestPublishFailureIsBoolean(t *testing.T) {
	sender := &fakeSender{connected: true, ok: false}
	p := newTestPublisher(sender)

	if p.PublishStatus(StatusOnline, "") {
		t.Fatalf("publish must report sender failure as false")
	}
}

func TestPublishSkipsSendWhenDisconnected(t *testing.T) {
	sender := &fakeSender{connected: false}
	p := newTestPublisher(sender)

	if p.PublishStatus(StatusOnline, "") {
		t.Fatalf("publish must fail while disconnected")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no send attempt expected while disconnected, got %d", len(sender.sent))
	}
}

func newTestPublisher(sender ports.Sender) *Publisher {
	return NewPublisher(sender, systemClock{}, nopObs{})
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type sentMessage struct {
	topic   string
	payload []byte
}

type fakeSender struct {
	connected bool
	ok        bool
	sent      []sentMessage
}

func (f *fakeSender) Send(topic string, payload []byte) bool {
	f.sent = append(f.sent, sentMessage{topic: topic, payload: payload})
	return f.ok
}

func (f *fakeSender) IsConnected() bool { return f.connected }

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) SetGauge(string, float64)               {}
func (nopObs) ObserveLatency(string, float64)         {}
