package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	obs := NewPromObs()

	obs.IncCounter("helmet_published_total", 5)
	if got := testutil.ToFloat64(obs.counters["helmet_published_total"]); got != 5 {
		t.Fatalf("expected published counter 5, got %f", got)
	}

	obs.IncCounter("helmet_sensor_unavailable_total", 2)
	if got := testutil.ToFloat64(obs.counters["helmet_sensor_unavailable_total"]); got != 2 {
		t.Fatalf("expected unavailable counter 2, got %f", got)
	}

	obs.SetGauge("helmet_emergency_active", 1)
	if got := testutil.ToFloat64(obs.gauges["helmet_emergency_active"]); got != 1 {
		t.Fatalf("expected emergency gauge 1, got %f", got)
	}

	obs.ObserveLatency("helmet_acquire_seconds", 0.5)
	hCollector := obs.histos["helmet_acquire_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected acquire histogram to record 1 sample, got %d", samples)
	}

	// Unknown names are ignored, not a panic.
	obs.IncCounter("helmet_no_such_counter", 1)
	obs.SetGauge("helmet_no_such_gauge", 1)
	obs.ObserveLatency("helmet_no_such_histogram", 1)
}
