package clock

import (
	"math"
	"time"
)

// Countdown tracks elapsed time since a start instant and, when a limit is
// set, the time remaining until it.
type Countdown struct {
	start time.Time
	limit time.Duration
}

func NewCountdown(start time.Time, limit time.Duration) Countdown {
	if limit < 0 {
		limit = 0
	}
	return Countdown{start: start, limit: limit}
}

func (c Countdown) Start() time.Time { return c.start }

func (c Countdown) Limit() time.Duration { return c.limit }

func (c Countdown) Bounded() bool { return c.limit > 0 }

func (c Countdown) Deadline() time.Time { return c.start.Add(c.limit) }

func (c Countdown) Elapsed(now time.Time) time.Duration {
	if now.Before(c.start) {
		return 0
	}
	return now.Sub(c.start)
}

// Remaining is max(0, limit - elapsed). It is zero for unbounded countdowns.
func (c Countdown) Remaining(now time.Time) time.Duration {
	if !c.Bounded() {
		return 0
	}
	r := c.limit - c.Elapsed(now)
	if r < 0 {
		return 0
	}
	return r
}

// Expired reports whether a bounded countdown has run out.
func (c Countdown) Expired(now time.Time) bool {
	return c.Bounded() && c.Remaining(now) == 0
}

// ElapsedSeconds is the elapsed time floored to whole seconds.
func (c Countdown) ElapsedSeconds(now time.Time) int {
	return int(c.Elapsed(now) / time.Second)
}

// RemainingSeconds is the remaining time rounded up to whole seconds.
func (c Countdown) RemainingSeconds(now time.Time) int {
	return int(math.Ceil(c.Remaining(now).Seconds()))
}
