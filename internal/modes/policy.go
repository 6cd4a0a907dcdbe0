package modes

type Termination int

const (
	ByCount Termination = iota
	ByTime
)

func (t Termination) String() string {
	if t == ByTime {
		return "by time"
	}
	return "by count"
}

// Policy is the population rule of a mode.
type Policy struct {
	Concurrency int
	// Replace means a new target retires the previous one instead of joining it.
	Replace       bool
	AllowMovement bool
	// StaggeredStart spawns the initial targets HydraStagger apart.
	StaggeredStart bool
}

var policies = map[Mode]Policy{
	TargetRush:   {Concurrency: 1, Replace: true, AllowMovement: true},
	TimeFrenzy:   {Concurrency: 1, Replace: true, AllowMovement: true},
	HydraTargets: {Concurrency: HydraConcurrency, AllowMovement: false, StaggeredStart: true},
}

// Deficit is how many targets must spawn to restore the mode's concurrency.
func (p Policy) Deficit(live int) int {
	if live >= p.Concurrency {
		return 0
	}
	return p.Concurrency - live
}

// ConcurrencyFor returns the live-target count a mode runs with.
func ConcurrencyFor(m Mode) int {
	return policies[m].Concurrency
}
