package modes

import (
	"fmt"
	"time"
)

type State string

const (
	StateIdle     = State("idle")
	StateRunning  = State("running")
	StateComplete = State("complete")
)

// Controller is the per-session state machine idle -> running -> complete.
// Complete is terminal; Start begins a fresh session from any state.
type Controller struct {
	state State
	cfg   Config
}

func NewController() *Controller {
	return &Controller{state: StateIdle}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) Running() bool {
	return c.state == StateRunning
}

// Start validates cfg and moves to running.
func (c *Controller) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.state = StateRunning
	return nil
}

// ShouldTerminate evaluates the active termination condition.
func (c *Controller) ShouldTerminate(score int, elapsed time.Duration) bool {
	if c.state != StateRunning {
		return false
	}
	switch c.cfg.Termination() {
	case ByTime:
		return elapsed >= c.cfg.TimeLimit
	default:
		return score >= c.cfg.TargetGoal
	}
}

// Finish moves running to complete and reports whether this call did it.
func (c *Controller) Finish() bool {
	if c.state != StateRunning {
		return false
	}
	c.state = StateComplete
	return true
}

// Reset abandons the current session and returns to idle.
func (c *Controller) Reset() {
	c.state = StateIdle
}

func (c *Controller) String() string {
	return fmt.Sprintf("%s(%s)", c.state, c.cfg)
}
