// Package schedule decides which sensors run on a given control-loop tick
// and owns the power-cycle acquisition protocol.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/ports"
)

// ErrSensorUnavailable marks an acquisition that timed out or produced no
// valid data. The schedule still advances; the caller logs and moves on.
var ErrSensorUnavailable = errors.New("schedule: sensor unavailable")

// ErrSensorAbsent marks a kind with no adapter fitted on this helmet.
var ErrSensorAbsent = errors.New("schedule: sensor not fitted")

const (
	// sampleGap separates consecutive samples of a multi-sample acquisition.
	sampleGap = 500 * time.Millisecond

	pulseTimeout       = 15 * time.Second
	temperatureTimeout = 10 * time.Second
)

type entry struct {
	lastRead time.Time
	hasRead  bool
}

// Scheduler tracks per-kind schedule state and runs acquisitions. It is
// confined to the control-loop goroutine; nothing here needs a lock.
type Scheduler struct {
	cfg     Config
	sensors map[domain.SensorKind]ports.Sensor
	clock   ports.Clock
	obs     ports.Observability
	entries map[domain.SensorKind]*entry

	cachedFix *domain.Fix
	cachedAt  time.Time
}

func New(cfg Config, sensors map[domain.SensorKind]ports.Sensor, clock ports.Clock, obs ports.Observability) *Scheduler {
	cfg.ApplyDefaults()
	entries := make(map[domain.SensorKind]*entry, len(domain.ScheduleOrder))
	for _, kind := range domain.ScheduleOrder {
		entries[kind] = &entry{}
	}
	return &Scheduler{
		cfg:     cfg,
		sensors: sensors,
		clock:   clock,
		obs:     obs,
		entries: entries,
	}
}

// Due returns every fitted sensor whose gating policy permits a read at
// now, in the fixed processing order. It never mutates schedule state.
func (s *Scheduler) Due(now time.Time) []domain.SensorKind {
	var due []domain.SensorKind
	for _, kind := range domain.ScheduleOrder {
		if s.sensors[kind] == nil {
			continue
		}
		if s.isDue(kind, now) {
			due = append(due, kind)
		}
	}
	return due
}

func (s *Scheduler) isDue(kind domain.SensorKind, now time.Time) bool {
	e := s.entries[kind]
	switch kind {
	case domain.KindGas:
		return s.gasDue(e, now)
	default:
		return s.intervalDue(e, now, s.interval(kind))
	}
}

func (s *Scheduler) intervalDue(e *entry, now time.Time, interval time.Duration) bool {
	if !e.hasRead {
		return true
	}
	return now.Sub(e.lastRead) >= interval
}

// gasDue gates the gas sensor on the daily operating window and the top of
// the hour, refuses a second run within the same hour so sub-minute ticks
// cannot double-fire it, and enforces the configured minimum spacing
// between reads. A spacing above one hour stretches the cadence to every
// Nth top-of-the-hour slot.
func (s *Scheduler) gasDue(e *entry, now time.Time) bool {
	start, end := s.cfg.Gas.OperatingHours[0], s.cfg.Gas.OperatingHours[1]
	hour := now.Hour()
	if hour < start || hour >= end {
		return false
	}
	if now.Minute() != 0 {
		return false
	}
	if e.hasRead && e.lastRead.Truncate(time.Hour).Equal(now.Truncate(time.Hour)) {
		return false
	}
	if e.hasRead && now.Sub(e.lastRead) < secs(s.cfg.Gas.IntervalSeconds) {
		return false
	}
	return true
}

func (s *Scheduler) interval(kind domain.SensorKind) time.Duration {
	switch kind {
	case domain.KindPulse:
		return secs(s.cfg.Pulse.IntervalSeconds)
	case domain.KindLocation:
		return secs(s.cfg.Location.IntervalSeconds)
	case domain.KindTemperature:
		return secs(s.cfg.Temperature.IntervalSeconds)
	default:
		return secs(s.cfg.Gas.IntervalSeconds)
	}
}

// Collect runs the acquisition path for one kind using normal-mode
// timeouts. For the cache-backed location kind a fresh cached fix is
// returned as-is, with no power cycle.
func (s *Scheduler) Collect(ctx context.Context, kind domain.SensorKind) (*domain.Reading, error) {
	switch kind {
	case domain.KindLocation:
		return s.collectLocation(ctx, secs(s.cfg.Location.NormalTimeoutSeconds), true)
	case domain.KindGas:
		return s.acquire(ctx, kind, s.gasTimeout(), s.cfg.Gas.Samples)
	case domain.KindTemperature:
		return s.acquire(ctx, kind, temperatureTimeout, s.cfg.Temperature.Samples)
	default:
		return s.acquire(ctx, kind, pulseTimeout, 1)
	}
}

// CollectEmergencyLocation forces a fresh fix with the extended emergency
// timeout, bypassing the cache on the way in but overwriting it on success.
func (s *Scheduler) CollectEmergencyLocation(ctx context.Context) (*domain.Reading, error) {
	return s.collectLocation(ctx, secs(s.cfg.Location.EmergencyTimeoutSeconds), false)
}

func (s *Scheduler) collectLocation(ctx context.Context, timeout time.Duration, useCache bool) (*domain.Reading, error) {
	now := s.clock.Now()
	ttl := secs(s.cfg.Location.CacheTTLSeconds)

	if useCache && s.cachedFix != nil && now.Sub(s.cachedAt) <= ttl {
		s.markAttempt(domain.KindLocation, now)
		return &domain.Reading{
			Kind:      domain.KindLocation,
			Fix:       s.cachedFix,
			Cached:    true,
			Timestamp: now,
		}, nil
	}

	reading, err := s.acquire(ctx, domain.KindLocation, timeout, 1)
	if err != nil {
		return nil, err
	}
	s.cachedFix = reading.Fix
	s.cachedAt = reading.Timestamp
	return reading, nil
}

// acquire runs the full power-cycle protocol: power-on, warm-up, sampled
// reads, classification. PowerOff runs exactly once on every exit path so
// a failed or timed-out acquisition cannot leave the sensor powered.
func (s *Scheduler) acquire(ctx context.Context, kind domain.SensorKind, timeout time.Duration, samples int) (*domain.Reading, error) {
	sensor := s.sensors[kind]
	if sensor == nil {
		return nil, ErrSensorAbsent
	}
	if samples < 1 {
		samples = 1
	}

	now := s.clock.Now()
	if !s.cfg.RetryOnFailure {
		// A failed attempt still consumes its slot; a dead sensor must not
		// be retried every tick on a battery budget.
		s.markAttempt(kind, now)
	}

	start := time.Now()
	defer func() {
		if err := sensor.PowerOff(); err != nil {
			s.obs.LogError("sensor_power_off_failed", err, ports.Field{Key: "kind", Value: kind.String()})
		}
		s.obs.ObserveLatency("helmet_acquire_seconds", time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sensor.PowerOn(); err != nil {
		return nil, s.unavailable(kind, fmt.Errorf("power on: %w", err))
	}
	if err := sleepCtx(ctx, sensor.WarmUp()); err != nil {
		return nil, s.unavailable(kind, fmt.Errorf("warm up: %w", err))
	}

	var (
		last *domain.Reading
		sum  float64
	)
	for i := 0; i < samples; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, sampleGap); err != nil {
				return nil, s.unavailable(kind, err)
			}
		}
		r, err := sensor.Acquire(ctx)
		if err != nil {
			return nil, s.unavailable(kind, err)
		}
		if r == nil {
			return nil, s.unavailable(kind, errors.New("empty reading"))
		}
		last = r
		sum += r.Value
	}

	last.Kind = kind
	last.Value = sum / float64(samples)
	last.Timestamp = s.clock.Now()
	last.Status = s.classify(kind, last.Value)

	s.markAttempt(kind, last.Timestamp)
	return last, nil
}

// classify applies the configured thresholds. Thresholds live here, not in
// the adapters, so they can be retuned without touching drivers.
func (s *Scheduler) classify(kind domain.SensorKind, value float64) domain.Status {
	switch kind {
	case domain.KindGas:
		switch {
		case value >= s.cfg.Gas.AlarmThreshold:
			return domain.StatusAlarm
		case value >= s.cfg.Gas.WarningThreshold:
			return domain.StatusWarning
		}
	case domain.KindTemperature:
		if value > s.cfg.Temperature.AlertThreshold {
			return domain.StatusWarning
		}
	}
	return domain.StatusNormal
}

func (s *Scheduler) gasTimeout() time.Duration {
	warm := secs(s.cfg.Gas.WarmUpSeconds)
	sampling := time.Duration(s.cfg.Gas.Samples) * sampleGap
	return warm + sampling + 10*time.Second
}

func (s *Scheduler) markAttempt(kind domain.SensorKind, at time.Time) {
	e := s.entries[kind]
	e.lastRead = at
	e.hasRead = true
}

func (s *Scheduler) unavailable(kind domain.SensorKind, err error) error {
	s.obs.IncCounter("helmet_sensor_unavailable_total", 1)
	s.obs.LogError("sensor_unavailable", err, ports.Field{Key: "kind", Value: kind.String()})
	return fmt.Errorf("%w: %s: %v", ErrSensorUnavailable, kind, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
