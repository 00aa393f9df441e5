// Package loop runs the helmet's control loop: a single cooperative thread
// that reconciles the emergency latch with the multi-rate sensor schedule.
package loop

import (
	"context"
	"time"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/pipeline"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/app/schedule"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/latch"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

type Config struct {
	TickSeconds                    int `yaml:"tick_seconds"`
	StatusIntervalSeconds          int `yaml:"status_interval_seconds"`
	EmergencyStatusIntervalSeconds int `yaml:"emergency_status_interval_seconds"`
}

func (c *Config) ApplyDefaults() {
	if c.TickSeconds <= 0 {
		c.TickSeconds = 1
	}
	if c.StatusIntervalSeconds <= 0 {
		c.StatusIntervalSeconds = 60
	}
	if c.EmergencyStatusIntervalSeconds <= 0 {
		c.EmergencyStatusIntervalSeconds = 30
	}
}

// Loop owns all mutable control state. The only thing it shares with other
// goroutines is the latch, which is read-only from here. The Normal →
// Emergency transition is one-way; the process must restart to leave it.
type Loop struct {
	cfg   Config
	latch *latch.Latch
	sched *schedule.Scheduler
	pub   *pipeline.Publisher
	alert ports.Alert
	wear  ports.Wear
	clock ports.Clock
	obs   ports.Observability

	emergencyHandled bool
	hasStatus        bool
	lastStatus       time.Time
	lastHeartbeat    time.Time
}

// New wires the loop. wear may be nil when the helmet carries no strap
// contact; the loop then skips wear gating entirely.
func New(cfg Config, l *latch.Latch, sched *schedule.Scheduler, pub *pipeline.Publisher, alert ports.Alert, wear ports.Wear, clock ports.Clock, obs ports.Observability) *Loop {
	cfg.ApplyDefaults()
	return &Loop{
		cfg:   cfg,
		latch: l,
		sched: sched,
		pub:   pub,
		alert: alert,
		wear:  wear,
		clock: clock,
		obs:   obs,
	}
}

// Run ticks until the context is cancelled. A tick that overruns because of
// a slow acquisition simply delays the next tick; delays never compound.
func (l *Loop) Run(ctx context.Context) error {
	tick := time.Duration(l.cfg.TickSeconds) * time.Second
	l.obs.LogInfo("control_loop_started")
	for {
		l.Tick(ctx)

		t := time.NewTimer(tick)
		select {
		case <-ctx.Done():
			t.Stop()
			l.obs.LogInfo("control_loop_stopped")
			return nil
		case <-t.C:
		}
	}
}

// Tick executes one control-loop iteration.
func (l *Loop) Tick(ctx context.Context) {
	now := l.clock.Now()
	if l.latch.IsSet() {
		l.emergencyTick(ctx, now)
		return
	}
	l.normalTick(ctx, now)
}

func (l *Loop) normalTick(ctx context.Context, now time.Time) {
	statusInterval := time.Duration(l.cfg.StatusIntervalSeconds) * time.Second

	// An unfastened chin strap pauses the schedule until the worker puts
	// the helmet back on. Emergencies bypass this: Tick checks the latch
	// before ever reaching here.
	if l.wear != nil && !l.wear.Fastened() {
		if !l.hasStatus || now.Sub(l.lastStatus) >= statusInterval {
			l.pub.PublishStatus(pipeline.StatusWarning, "helmet strap unfastened")
			l.lastStatus = now
			l.hasStatus = true
		}
		return
	}

	for _, kind := range l.sched.Due(now) {
		reading, err := l.sched.Collect(ctx, kind)
		if err != nil {
			// already logged and counted by the scheduler
			continue
		}
		l.pub.PublishReading(reading)

		if kind == domain.KindTemperature && reading.Status == domain.StatusWarning {
			l.pub.PublishStatus(pipeline.StatusWarning, "high temperature detected")
		}
	}

	if !l.hasStatus || now.Sub(l.lastStatus) >= statusInterval {
		l.pub.PublishStatus(pipeline.StatusOnline, "")
		l.lastStatus = now
		l.hasStatus = true
	}
}

func (l *Loop) emergencyTick(ctx context.Context, now time.Time) {
	if !l.emergencyHandled {
		l.runEmergencySequence(ctx)
		l.emergencyHandled = true
		l.lastHeartbeat = now
		l.obs.SetGauge("helmet_emergency_active", 1)
		return
	}

	interval := time.Duration(l.cfg.EmergencyStatusIntervalSeconds) * time.Second
	if now.Sub(l.lastHeartbeat) >= interval {
		cause, _, _ := l.latch.Snapshot()
		l.pub.PublishStatus(pipeline.StatusEmergency, cause.String())
		l.obs.IncCounter("helmet_emergency_heartbeats_total", 1)
		l.lastHeartbeat = now
	}
}

// runEmergencySequence executes the one-shot emergency payload. Every step
// is best-effort; a failed acquisition or publish never aborts the rest.
func (l *Loop) runEmergencySequence(ctx context.Context) {
	l.alert.Activate()

	cause, _, _ := l.latch.Snapshot()
	l.pub.PublishStatus(pipeline.StatusEmergency, cause.String()+" detected")

	if r, err := l.sched.CollectEmergencyLocation(ctx); err == nil {
		l.pub.PublishReading(r)
	}
	for _, kind := range []domain.SensorKind{domain.KindPulse, domain.KindGas, domain.KindTemperature} {
		r, err := l.sched.Collect(ctx, kind)
		if err != nil {
			continue
		}
		l.pub.PublishReading(r)
	}

	l.obs.LogInfo("emergency_sequence_complete", ports.Field{Key: "cause", Value: cause.String()})
}
