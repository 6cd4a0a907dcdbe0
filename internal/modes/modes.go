// Package modes holds the per-mode rules of a session: which termination
// condition applies, how many targets stay live and how they are replaced.
package modes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidConfiguration = errors.New("invalid mode configuration")

type Mode string

const (
	TargetRush   = Mode("target_rush")
	TimeFrenzy   = Mode("time_frenzy")
	HydraTargets = Mode("hydra_targets")
)

type HydraVariant string

const (
	HydraTargetCount = HydraVariant("target_count")
	HydraTimed       = HydraVariant("timed")
)

// HydraConcurrency is the number of targets hydra mode keeps live.
const HydraConcurrency = 3

// HydraStagger separates the spawns of hydra's initial burst.
const HydraStagger = 200 * time.Millisecond

// ParseMode accepts both wire names ("time_frenzy") and display names ("Time Frenzy").
func ParseMode(s string) (Mode, bool) {
	switch normalize(s) {
	case "target_rush":
		return TargetRush, true
	case "time_frenzy":
		return TimeFrenzy, true
	case "hydra_targets", "hydra":
		return HydraTargets, true
	}
	return "", false
}

func ParseHydraVariant(s string) (HydraVariant, bool) {
	switch normalize(s) {
	case "target_count":
		return HydraTargetCount, true
	case "timed", "total_time":
		return HydraTimed, true
	}
	return "", false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Config is the immutable rule set for one session.
type Config struct {
	Mode        Mode
	Hydra       HydraVariant  // only for HydraTargets
	TargetGoal  int           // count-based termination, 0 when time-based
	TimeLimit   time.Duration // time-based termination, 0 when count-based
	TargetSize  float64       // diameter in px
	Move        bool
	Speed       float64       // px per second
	Lifetime    time.Duration // 0 means targets never expire
	Concurrency int
}

// Validate checks the structural invariants: a known mode, the mode's
// concurrency, and exactly one termination condition of the kind the mode uses.
func (c Config) Validate() error {
	p, ok := policies[c.Mode]
	if !ok {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, c.Mode)
	}
	if c.Mode == HydraTargets {
		if _, ok := ParseHydraVariant(string(c.Hydra)); !ok {
			return fmt.Errorf("%w: unknown hydra variant %q", ErrInvalidConfiguration, c.Hydra)
		}
	}
	if c.Concurrency != p.Concurrency {
		return fmt.Errorf("%w: %s runs %d concurrent targets, got %d", ErrInvalidConfiguration, c.Mode, p.Concurrency, c.Concurrency)
	}
	byCount, byTime := c.TargetGoal > 0, c.TimeLimit > 0
	if byCount == byTime {
		return fmt.Errorf("%w: exactly one of target goal (%d) and time limit (%s) must be set", ErrInvalidConfiguration, c.TargetGoal, c.TimeLimit)
	}
	if want := c.Termination(); (want == ByCount) != byCount {
		return fmt.Errorf("%w: %s terminates %s", ErrInvalidConfiguration, c.Mode, want)
	}
	if c.TargetSize <= 0 {
		return fmt.Errorf("%w: target size must be positive, got %v", ErrInvalidConfiguration, c.TargetSize)
	}
	if c.Lifetime < 0 {
		return fmt.Errorf("%w: negative target lifetime %s", ErrInvalidConfiguration, c.Lifetime)
	}
	return nil
}

// Termination reports which condition ends a session of this configuration.
func (c Config) Termination() Termination {
	switch c.Mode {
	case TimeFrenzy:
		return ByTime
	case HydraTargets:
		if c.Hydra == HydraTimed {
			return ByTime
		}
		return ByCount
	}
	return ByCount
}

// Moves reports whether spawned targets get a motion vector. Hydra never moves.
func (c Config) Moves() bool {
	return c.Move && c.Speed > 0 && policies[c.Mode].AllowMovement
}

func (c Config) Policy() Policy {
	return policies[c.Mode]
}

func (c Config) String() string {
	if c.Mode == HydraTargets {
		return fmt.Sprintf("%s/%s", c.Mode, c.Hydra)
	}
	return string(c.Mode)
}
