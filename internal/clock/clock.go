// Package clock is the time source for record timestamps and periodic work.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

type Clock = clockwork.Clock

// Fake is a manually advanced clock for tests.
type Fake = clockwork.FakeClock

// storeClock reports UTC with microsecond precision, the resolution both
// PostgreSQL and JSON snapshots keep.
type storeClock struct {
	clockwork.Clock
}

func (c storeClock) Now() time.Time {
	return c.Clock.Now().UTC().Truncate(time.Microsecond)
}

// Real returns the wall clock.
func Real() Clock {
	return storeClock{clockwork.NewRealClock()}
}

func NewFake(initial time.Time) *Fake {
	return clockwork.NewFakeClockAt(initial)
}
