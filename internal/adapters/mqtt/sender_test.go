package mqtt

import (
	"strings"
	"testing"
	"time"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

func TestNewSenderReturnsWithBrokerDown(t *testing.T) {
	// Port 1 refuses immediately; two attempts with one second of backoff
	// must come back well inside the deadline below.
	cfg := Config{
		BrokerURL:             "tcp://127.0.0.1:1",
		ConnectRetries:        2,
		ConnectBackoffSeconds: 1,
	}

	type result struct {
		s   *Sender
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := NewSender(cfg, nopObs{})
		done <- result{s: s, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("NewSender: %v", r.err)
		}
		defer r.s.Close()
		if r.s.IsConnected() {
			t.Fatalf("sender claims a connection to a dead broker")
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("NewSender still blocked after 10s with the broker down")
	}
}

func TestTopicFor(t *testing.T) {
	got := topicFor("helmet_a1b2c3", "sensors/gas")
	if got != "devices/helmet_a1b2c3/sensors/gas" {
		t.Fatalf("unexpected topic %q", got)
	}
}

func TestDeviceIDIsStableAndPrefixed(t *testing.T) {
	a := deviceID("helmet")
	b := deviceID("helmet")
	if a != b {
		t.Fatalf("device ID must be deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "helmet_") {
		t.Fatalf("device ID missing prefix: %q", a)
	}
	if len(a) <= len("helmet_") {
		t.Fatalf("device ID carries no hardware identity: %q", a)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{BrokerURL: "tcp://broker:1883"}
	cfg.ApplyDefaults()

	if cfg.ClientIDPrefix != "helmet" {
		t.Fatalf("unexpected client_id_prefix default %q", cfg.ClientIDPrefix)
	}
	if cfg.ConnectRetries != 3 || cfg.ConnectBackoffSeconds != 2 {
		t.Fatalf("unexpected retry defaults: %+v", cfg)
	}
	if cfg.KeepAliveSeconds != 60 || cfg.PublishTimeoutSeconds != 5 {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestConfigRequiresBroker(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("empty broker_url must be rejected")
	}
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) SetGauge(string, float64)               {}
func (nopObs) ObserveLatency(string, float64)         {}
