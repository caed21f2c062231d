package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for prediction timestamps and latency.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the domain clock in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}

// Since returns the time elapsed on the domain clock since t.
func Since(t time.Time) time.Duration {
	return clock.Since(t)
}
