package loop

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/pipeline"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/schedule"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/latch"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

func TestNormalTicksPublishOnePerDueSensor(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))

	h.loop.Tick(context.Background())

	// 12:00 inside the gas window: all four sensors due, plus one status.
	sensorMsgs := h.sender.byKind()
	for _, topic := range []string{pipeline.TopicPulse, pipeline.TopicLocation, pipeline.TopicGas, pipeline.TopicTemperature} {
		if sensorMsgs[topic] != 1 {
			t.Fatalf("topic %s got %d messages on first tick, want 1", topic, sensorMsgs[topic])
		}
	}
	if sensorMsgs[pipeline.TopicStatus] != 1 {
		t.Fatalf("expected one status message, got %d", sensorMsgs[pipeline.TopicStatus])
	}

	h.clock.advance(300 * time.Second) // 12:05
	h.loop.Tick(context.Background())

	sensorMsgs = h.sender.byKind()
	if sensorMsgs[pipeline.TopicPulse] != 2 || sensorMsgs[pipeline.TopicLocation] != 2 || sensorMsgs[pipeline.TopicTemperature] != 2 {
		t.Fatalf("interval sensors not republished on second tick: %v", sensorMsgs)
	}
	if sensorMsgs[pipeline.TopicGas] != 1 {
		t.Fatalf("gas fired off the top of the hour: %v", sensorMsgs)
	}

	// Timestamps never decrease across ticks.
	var prev float64
	for i, m := range h.sender.sent {
		ts := h.timestampOf(t, m)
		if ts < prev {
			t.Fatalf("message %d timestamp %v below previous %v", i, ts, prev)
		}
		prev = ts
	}
}

func TestInterruptTriggersEmergencySequenceExactlyOnce(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))

	h.loop.Tick(context.Background())
	beforeEmergency := len(h.sender.sent)

	// Interrupt lands between ticks.
	h.latch.Record(domain.CauseImpact)

	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())

	if h.alert.activations != 1 {
		t.Fatalf("alert activated %d times, want exactly 1", h.alert.activations)
	}

	seq := h.sender.sent[beforeEmergency:]
	if len(seq) == 0 || seq[0].topic != pipeline.TopicStatus {
		t.Fatalf("emergency sequence must lead with a status message, got %+v", seq)
	}
	if !strings.Contains(string(seq[0].payload), "IMPACT") {
		t.Fatalf("first emergency message must carry the cause, got %s", seq[0].payload)
	}

	kinds := h.sender.byKind()
	if kinds[pipeline.TopicLocation] != 2 || kinds[pipeline.TopicPulse] != 2 ||
		kinds[pipeline.TopicGas] != 1 || kinds[pipeline.TopicTemperature] != 2 {
		t.Fatalf("emergency sequence did not publish the full bundle: %v", kinds)
	}

	// The next tick inside the heartbeat interval publishes nothing.
	afterSequence := len(h.sender.sent)
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())
	if len(h.sender.sent) != afterSequence {
		t.Fatalf("unexpected messages inside heartbeat interval: %d new",
			len(h.sender.sent)-afterSequence)
	}

	// Well past every sensor interval the schedule stays suspended; only the
	// heartbeat fires.
	h.clock.advance(301 * time.Second)
	h.loop.Tick(context.Background())
	extra := h.sender.sent[afterSequence:]
	if len(extra) != 1 || extra[0].topic != pipeline.TopicStatus {
		t.Fatalf("expected exactly one heartbeat, got %+v", extra)
	}
	if !strings.Contains(string(extra[0].payload), "IMPACT") {
		t.Fatalf("heartbeat must carry the cause, got %s", extra[0].payload)
	}
	if h.alert.activations != 1 {
		t.Fatalf("emergency sequence re-ran: alert activated %d times", h.alert.activations)
	}
}

func TestTemperatureWarningPublishesStatus(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	h.temp.reading = &domain.Reading{Value: 40.5}

	h.loop.Tick(context.Background())

	warned := false
	for _, m := range h.sender.sent {
		if m.topic == pipeline.TopicStatus && strings.Contains(string(m.payload), "high temperature") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("over-threshold temperature must publish a warning status")
	}
}

func TestFailingSensorDoesNotStopTheTick(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	h.pulse.acquireErr = errTest

	h.loop.Tick(context.Background())

	kinds := h.sender.byKind()
	if kinds[pipeline.TopicPulse] != 0 {
		t.Fatalf("failed pulse acquisition must not publish")
	}
	if kinds[pipeline.TopicLocation] != 1 || kinds[pipeline.TopicTemperature] != 1 {
		t.Fatalf("later sensors must still run after a failure: %v", kinds)
	}
}

func TestUnfastenedStrapPausesScheduleAndWarns(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	h.wear.fastened = false

	h.loop.Tick(context.Background())

	kinds := h.sender.byKind()
	for _, topic := range []string{pipeline.TopicPulse, pipeline.TopicLocation, pipeline.TopicGas, pipeline.TopicTemperature} {
		if kinds[topic] != 0 {
			t.Fatalf("sensor %s published while the strap was unfastened: %v", topic, kinds)
		}
	}
	if kinds[pipeline.TopicStatus] != 1 {
		t.Fatalf("expected exactly one strap warning, got %d status messages", kinds[pipeline.TopicStatus])
	}
	if !strings.Contains(string(h.sender.sent[0].payload), "strap unfastened") {
		t.Fatalf("warning must name the unfastened strap, got %s", h.sender.sent[0].payload)
	}

	// Inside the status interval the warning does not repeat.
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())
	if n := h.sender.byKind()[pipeline.TopicStatus]; n != 1 {
		t.Fatalf("strap warning repeated inside the status interval: %d", n)
	}

	// Past the interval it fires again.
	h.clock.advance(60 * time.Second)
	h.loop.Tick(context.Background())
	if n := h.sender.byKind()[pipeline.TopicStatus]; n != 2 {
		t.Fatalf("strap warning did not repeat after the status interval: %d", n)
	}

	// Fastening the strap resumes the schedule on the next tick.
	h.wear.fastened = true
	h.clock.advance(time.Second)
	h.loop.Tick(context.Background())
	kinds = h.sender.byKind()
	if kinds[pipeline.TopicPulse] != 1 || kinds[pipeline.TopicLocation] != 1 || kinds[pipeline.TopicTemperature] != 1 {
		t.Fatalf("schedule did not resume after fastening: %v", kinds)
	}
}

func TestEmergencyRunsWhileStrapUnfastened(t *testing.T) {
	h := newHarness(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	h.wear.fastened = false
	h.latch.Record(domain.CauseFreeFall)

	h.loop.Tick(context.Background())

	if h.alert.activations != 1 {
		t.Fatalf("emergency sequence must run regardless of strap state; activations = %d", h.alert.activations)
	}
	if h.sender.byKind()[pipeline.TopicLocation] != 1 {
		t.Fatalf("emergency location not published: %v", h.sender.byKind())
	}
}

var errTest = context.DeadlineExceeded

// harness wires a real latch, scheduler, and publisher around fakes.
type harness struct {
	loop   *Loop
	latch  *latch.Latch
	clock  *fakeClock
	sender *fakeSender
	alert  *fakeAlert
	wear   *fakeWear

	pulse, gps, gas, temp *fakeSensor
}

func newHarness(t *testing.T, start time.Time) *harness {
	t.Helper()

	h := &harness{
		latch:  latch.New(),
		clock:  &fakeClock{now: start},
		sender: &fakeSender{connected: true, ok: true},
		alert:  &fakeAlert{},
		wear:   &fakeWear{fastened: true},
		pulse:  &fakeSensor{reading: &domain.Reading{Vitals: &domain.Vitals{HeartRate: 72, SpO2: 98}}},
		gps:    &fakeSensor{reading: &domain.Reading{Fix: &domain.Fix{Latitude: "4717.11 N", Longitude: "00833.91 E", Altitude: "545.4 M"}}},
		gas:    &fakeSensor{reading: &domain.Reading{Value: 900}},
		temp:   &fakeSensor{reading: &domain.Reading{Value: 36.6}},
	}

	schedCfg := schedule.Config{
		Pulse:       schedule.PulseConfig{IntervalSeconds: 60},
		Location:    schedule.LocationConfig{IntervalSeconds: 300, CacheTTLSeconds: 300},
		Gas:         schedule.GasConfig{OperatingHours: [2]int{8, 18}, Samples: 1, WarningThreshold: 1500, AlarmThreshold: 2500},
		Temperature: schedule.TemperatureConfig{IntervalSeconds: 300, AlertThreshold: 39, Samples: 1},
	}
	sensors := map[domain.SensorKind]ports.Sensor{
		domain.KindPulse:       h.pulse,
		domain.KindLocation:    h.gps,
		domain.KindGas:         h.gas,
		domain.KindTemperature: h.temp,
	}

	obs := nopObs{}
	sched := schedule.New(schedCfg, sensors, h.clock, obs)
	pub := pipeline.NewPublisher(h.sender, h.clock, obs)

	h.loop = New(Config{TickSeconds: 1, StatusIntervalSeconds: 60, EmergencyStatusIntervalSeconds: 30},
		h.latch, sched, pub, h.alert, h.wear, h.clock, obs)
	return h
}

func (h *harness) timestampOf(t *testing.T, m sentMessage) float64 {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(m.payload, &payload); err != nil {
		t.Fatalf("unmarshal %s: %v", m.topic, err)
	}
	ts, ok := payload["timestamp"].(float64)
	if !ok {
		t.Fatalf("message on %s has no timestamp: %s", m.topic, m.payload)
	}
	return ts
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeSensor struct {
	reading    *domain.Reading
	acquireErr error
}

func (f *fakeSensor) PowerOn() error        { return nil }
func (f *fakeSensor) PowerOff() error       { return nil }
func (f *fakeSensor) WarmUp() time.Duration { return 0 }

func (f *fakeSensor) Acquire(ctx context.Context) (*domain.Reading, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	r := *f.reading
	return &r, nil
}

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

func (f *fakeSender) byKind() map[string]int {
	out := make(map[string]int)
	for _, m := range f.sent {
		out[m.topic]++
	}
	return out
}

type fakeAlert struct {
	activations int
}

func (f *fakeAlert) Activate() { f.activations++ }

type fakeWear struct {
	fastened bool
}

func (f *fakeWear) Fastened() bool { return f.fastened }

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) SetGauge(string, float64)               {}
func (nopObs) ObserveLatency(string, float64)         {}
