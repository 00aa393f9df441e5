// Package latch holds the emergency state shared between interrupt
// handlers and the control loop.
package latch

import (
	"sync/atomic"
	"time"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
)

// Latch is a monotone, non-resettable emergency flag. Record is safe from
// interrupt context: it is lock-free, allocation-free, and idempotent — the
// first call fixes cause and timestamp for the lifetime of the process.
// There is no way to clear a Latch; recovery is a device power cycle.
//
// Ordering: cause and stamp are written before set is published, and
// readers check set before loading them, so a reader never observes a
// half-written snapshot.
type Latch struct {
	armed    atomic.Bool
	set      atomic.Bool
	cause    atomic.Int32
	stamp    atomic.Int64
	triggers atomic.Int64
}

func New() *Latch {
	return &Latch{}
}

// Record captures an interrupt event. Only the first call changes state;
// later calls, with any cause, are counted and otherwise ignored.
func (l *Latch) Record(cause domain.EmergencyCause) {
	if l.armed.CompareAndSwap(false, true) {
		l.cause.Store(int32(cause))
		l.stamp.Store(time.Now().UnixNano())
		l.set.Store(true)
		return
	}
	l.triggers.Add(1)
}

// IsSet reports whether an emergency has been recorded. Never blocks.
func (l *Latch) IsSet() bool {
	return l.set.Load()
}

// Snapshot returns the first-recorded cause and timestamp, or ok=false if
// the latch has never fired.
func (l *Latch) Snapshot() (cause domain.EmergencyCause, at time.Time, ok bool) {
	if !l.set.Load() {
		return 0, time.Time{}, false
	}
	return domain.EmergencyCause(l.cause.Load()), time.Unix(0, l.stamp.Load()), true
}

// Triggers counts Record calls beyond the first. Diagnostics only.
func (l *Latch) Triggers() int64 {
	return l.triggers.Load()
}
