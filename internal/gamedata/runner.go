package gamedata

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"aimy/internal/clock"
	"aimy/internal/modes"
	"aimy/internal/stats"
	"aimy/internal/targets"
)

// FrameInterval is the default tick period, one 60fps frame.
const FrameInterval = time.Second / 60

var ErrRunnerStopped = errors.New("game runner stopped")

// Runner owns a Game on a single goroutine. Commands from transports are
// queued and run between frames, so the Game never needs locking.
type Runner struct {
	game  *Game
	clock clock.Clock
	frame time.Duration
	cmds  chan func(*Game)
	done  chan struct{}

	// running mirrors the game's scene after every command and frame.
	running atomic.Bool
}

func NewRunner(g *Game, c clock.Clock, frame time.Duration) *Runner {
	if frame <= 0 {
		frame = FrameInterval
	}
	return &Runner{
		game:  g,
		clock: c,
		frame: frame,
		cmds:  make(chan func(*Game), 64),
		done:  make(chan struct{}),
	}
}

// Run processes commands and frame ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.game.Abort()
			return
		case cmd := <-r.cmds:
			cmd(r.game)
		case <-ticker.C:
			r.game.Tick(r.clock.Now())
			r.running.Store(r.game.ctrl.Running())
		}
	}
}

// Running reports whether a session was in progress as of the last command
// or frame. Safe to call from any goroutine.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// do queues fn and waits for it. On error fn may still run later, so callers
// must not read anything fn writes.
func (r *Runner) do(ctx context.Context, fn func(*Game)) error {
	finished := make(chan struct{})
	cmd := func(g *Game) {
		defer close(finished)
		fn(g)
		r.running.Store(g.ctrl.Running())
	}
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Start(ctx context.Context, cfg modes.Config) error {
	var err error
	if derr := r.do(ctx, func(g *Game) { err = g.Start(cfg) }); derr != nil {
		return derr
	}
	return err
}

// Input stamps the shot with the runner's clock and resolves it.
func (r *Runner) Input(ctx context.Context, p targets.Point) (Outcome, error) {
	var out Outcome
	if err := r.do(ctx, func(g *Game) { out = g.HandleInput(p, r.clock.Now()) }); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (r *Runner) Complete(ctx context.Context) (stats.Summary, bool, error) {
	var (
		s       stats.Summary
		emitted bool
	)
	if err := r.do(ctx, func(g *Game) { s, emitted = g.Complete() }); err != nil {
		return stats.Summary{}, false, err
	}
	return s, emitted, nil
}

func (r *Runner) View(ctx context.Context) (View, error) {
	var v View
	err := r.do(ctx, func(g *Game) {
		g.advance(r.clock.Now())
		v = g.View()
	})
	if err != nil {
		return View{}, err
	}
	return v, nil
}
