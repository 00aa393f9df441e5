package ports

import (
	"context"
	"time"

	"github.com/PlsGelpME/Smart-Safety-Helmet/internal/domain"
)

// Sensor is the capability set every sensor adapter exposes to the
// scheduler: power control plus a single bounded acquisition. The scheduler
// owns the power cycle; an adapter must tolerate PowerOff after a failed
// PowerOn and must never leave Acquire running past ctx cancellation.
type Sensor interface {
	PowerOn() error
	PowerOff() error

	// WarmUp is the mandatory delay between PowerOn and the first valid
	// Acquire. Zero means the sensor is ready immediately.
	WarmUp() time.Duration

	// Acquire takes one reading. It blocks up to the ctx deadline and
	// returns an error for timeouts and malformed data alike.
	Acquire(ctx context.Context) (*domain.Reading, error)
}
