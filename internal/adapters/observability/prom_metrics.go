package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// PromObs backs the observability port with Prometheus metrics and stdlib
// logging. Unknown metric names are silently ignored so callers never have
// to care whether a counter is registered.
type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "helmet_published_total",
		Help: "Messages accepted by the MQTT broker.",
	})
	publishFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "helmet_publish_failed_total",
		Help: "Messages dropped because the sender was down or refused them.",
	})
	unavailable := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "helmet_sensor_unavailable_total",
		Help: "Acquisitions that timed out or produced no valid data.",
	})
	heartbeats := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "helmet_emergency_heartbeats_total",
		Help: "Periodic still-in-emergency status messages.",
	})
	emergency := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "helmet_emergency_active",
		Help: "1 once the emergency latch has fired; never returns to 0.",
	})
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "helmet_mqtt_connected",
		Help: "Broker connection state as seen by the client.",
	})
	acquire := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "helmet_acquire_seconds",
		Help:    "Full acquisition latency including warm-up and sampling.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	prometheus.MustRegister(published, publishFailed, unavailable, heartbeats, emergency, connected, acquire)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"helmet_published_total":            published,
			"helmet_publish_failed_total":       publishFailed,
			"helmet_sensor_unavailable_total":   unavailable,
			"helmet_emergency_heartbeats_total": heartbeats,
		},
		gauges: map[string]prometheus.Gauge{
			"helmet_emergency_active": emergency,
			"helmet_mqtt_connected":   connected,
		},
		histos: map[string]prometheus.Observer{
			"helmet_acquire_seconds": acquire,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
