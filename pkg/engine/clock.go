package engine

import "time"

// Clock provides time for verification bookkeeping. Inject a fixed clock in
// tests to make elapsed-time fields deterministic.
type Clock interface {
	Now() time.Time
}

// wallClock is the default clock.
type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
