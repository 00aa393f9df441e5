// Package helmet embeds the safety-helmet firmware loop inside any Go
// program: load a config, construct a Runtime, and run it. Every adapter
// can be swapped through options, which is also how the simulator examples
// and tests drive the core without hardware.
package helmet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/mqtt"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/adapters/observability"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/loop"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/pipeline"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/schedule"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/latch"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// Option customizes the dependencies used by Runtime.
type Option func(*runtimeOverrides)

type runtimeOverrides struct {
	sender  ports.Sender
	sensors map[domain.SensorKind]ports.Sensor
	alert   ports.Alert
	wear    ports.Wear
	clock   ports.Clock
	obs     ports.Observability
	latch   *latch.Latch
}

// WithSender injects a custom transport in place of the MQTT sender.
func WithSender(s ports.Sender) Option {
	return func(o *runtimeOverrides) {
		o.sender = s
	}
}

// WithSensor injects a sensor implementation for one capability. The
// matching hardware section in the config is ignored for that capability.
func WithSensor(kind domain.SensorKind, s ports.Sensor) Option {
	return func(o *runtimeOverrides) {
		o.sensors[kind] = s
	}
}

// WithAlert injects a custom alert output in place of the buzzer.
func WithAlert(a ports.Alert) Option {
	return func(o *runtimeOverrides) {
		o.alert = a
	}
}

// WithWear injects a custom strap-wear detector in place of the GPIO
// contact switch.
func WithWear(w ports.Wear) Option {
	return func(o *runtimeOverrides) {
		o.wear = w
	}
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(c ports.Clock) Option {
	return func(o *runtimeOverrides) {
		o.clock = c
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *runtimeOverrides) {
		o.obs = obs
	}
}

// WithLatch shares a caller-owned latch so external interrupt sources can
// record emergencies into the same runtime.
func WithLatch(l *latch.Latch) Option {
	return func(o *runtimeOverrides) {
		o.latch = l
	}
}

// trigger is an interrupt source bound to the emergency cause it reports.
type trigger struct {
	watch func(context.Context, func())
	cause domain.EmergencyCause
}

// Runtime wires the latch, scheduler, publisher, and control loop together
// with the configured hardware adapters and exposes simple lifecycle hooks.
type Runtime struct {
	cfg      *Config
	latch    *latch.Latch
	loop     *loop.Loop
	obs      ports.Observability
	sender   ports.Sender
	deviceID string
	triggers []trigger
	closers  []func() error

	metricsSrv *http.Server
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	shutOnce   sync.Once
}

// NewRuntime bootstraps the default adapters for every enabled hardware
// section and the MQTT sender. Options override any dependency, and a
// capability that is neither enabled nor injected is simply absent: the
// scheduler skips it.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	overrides := runtimeOverrides{sensors: make(map[domain.SensorKind]ports.Sensor)}
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.obs
	if obs == nil {
		obs = observability.NewPromObs()
	}
	clock := overrides.clock
	if clock == nil {
		clock = systemClock{}
	}
	l := overrides.latch
	if l == nil {
		l = latch.New()
	}

	hw, err := buildHardware(cfg, &overrides)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		cfg:      cfg,
		latch:    l,
		obs:      obs,
		triggers: hw.triggers,
		closers:  hw.closers,
	}

	sender := overrides.sender
	if sender == nil {
		ms, err := mqtt.NewSender(cfg.MQTT, obs)
		if err != nil {
			hw.close()
			return nil, err
		}
		r.deviceID = ms.DeviceID()
		r.closers = append(r.closers, func() error { ms.Close(); return nil })
		sender = ms
	}
	r.sender = sender

	sched := schedule.New(cfg.Sensors, hw.sensors, clock, obs)
	pub := pipeline.NewPublisher(sender, clock, obs)
	r.loop = loop.New(cfg.Loop, l, sched, pub, hw.alert, hw.wear, clock, obs)

	return r, nil
}

// Latch returns the emergency latch. Interrupt handlers outside the runtime
// record into it; the control loop only ever reads it.
func (r *Runtime) Latch() *latch.Latch {
	return r.latch
}

// DeviceID returns the hardware-derived MQTT client identifier, or "" when
// a custom sender was injected.
func (r *Runtime) DeviceID() string {
	return r.deviceID
}

// Start launches the interrupt watchers, metrics server, and control loop
// in the background. It returns immediately; call Run to block on a context
// instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.begin(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.loop.Run(ctx)
	}()
	return nil
}

// Run starts the runtime and blocks until the provided context is
// cancelled, then attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.begin(runCtx)

	err := r.loop.Run(runCtx)

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	return errors.Join(err, r.Shutdown(shutdownCtx))
}

// Shutdown stops the watchers, metrics server, and transport.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	r.shutOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}

		if r.metricsSrv != nil {
			if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs = append(errs, err)
			}
		}

		waited := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}

		for _, c := range r.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

func (r *Runtime) begin(ctx context.Context) {
	for _, tr := range r.triggers {
		tr := tr
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			tr.watch(ctx, func() { r.latch.Record(tr.cause) })
		}()
	}
	r.startMetrics()
}

func (r *Runtime) startMetrics() {
	addr := r.cfg.Metrics.Addr
	if addr == "" {
		addr = ":9100"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var _ ports.Clock = systemClock{}
