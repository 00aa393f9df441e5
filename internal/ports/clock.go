package ports

import "time"

// Clock supplies the control loop's notion of time so scheduling decisions
// (intervals, operating hours, cache ages) stay deterministic under test.
type Clock interface {
	Now() time.Time
}
