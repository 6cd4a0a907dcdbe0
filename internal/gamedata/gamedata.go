package gamedata

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"aimy/internal/clock"
	"aimy/internal/events"
	"aimy/internal/logger"
	"aimy/internal/modes"
	"aimy/internal/stats"
	"aimy/internal/targets"

	"github.com/google/uuid"
)

var ErrSessionRunning = errors.New("session already running")

// Observer receives session activity, e.g. for metrics.
type Observer interface {
	SessionStarted(mode string)
	Shot(mode string, hit bool)
	TargetExpired(mode string)
	SessionCompleted(summary stats.Summary, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(string)                        {}
func (nopObserver) Shot(string, bool)                            {}
func (nopObserver) TargetExpired(string)                         {}
func (nopObserver) SessionCompleted(stats.Summary, time.Duration) {}

type Option func(*Game)

func WithObserver(o Observer) Option {
	return func(g *Game) {
		if o != nil {
			g.observer = o
		}
	}
}

func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

func WithLogger(l logger.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

// WithCompletion registers the host's completion handler. It runs on the
// game's goroutine exactly once per session.
func WithCompletion(fn func(session string, summary stats.Summary)) Option {
	return func(g *Game) { g.onComplete = fn }
}

// Outcome is the per-input result handed back for presentation.
type Outcome struct {
	Accepted  bool           `json:"accepted"`
	Hit       bool           `json:"hit"`
	TargetID  int            `json:"id,omitempty"`
	Band      int            `json:"band"`
	Points    int            `json:"points,omitempty"`
	Stats     stats.Snapshot `json:"stats"`
	Completed bool           `json:"completed,omitempty"`
}

// View is a point-in-time snapshot of a session.
type View struct {
	Session   string              `json:"session"`
	Scene     modes.State         `json:"scene"`
	Mode      string              `json:"mode,omitempty"`
	Targets   []events.TargetView `json:"targets"`
	Stats     stats.Snapshot      `json:"stats"`
	Elapsed   int                 `json:"elapsed"`
	Remaining int                 `json:"remaining,omitempty"`
	Summary   *stats.Summary      `json:"summary,omitempty"`
}

// Game is one game session engine. It owns its live targets, timers and
// statistics and is driven from a single goroutine; see Runner.
type Game struct {
	id         string
	gen        uint64
	clock      clock.Clock
	arena      targets.Arena
	rng        *rand.Rand
	sched      *clock.Scheduler
	ctrl       *modes.Controller
	spawner    *targets.Spawner
	live       *targets.Store
	stats      stats.Accumulator
	countdown  clock.Countdown
	expiries   map[int]clock.Token
	lastTick   time.Time
	lastShown  int
	summary    *stats.Summary
	bus        *events.Bus
	observer   Observer
	onComplete func(string, stats.Summary)
	log        logger.Logger
}

func NewGame(c clock.Clock, arena targets.Arena, bus *events.Bus, opts ...Option) *Game {
	g := &Game{
		clock:    c,
		arena:    arena,
		sched:    clock.NewScheduler(),
		ctrl:     modes.NewController(),
		live:     targets.NewStore(),
		expiries: make(map[int]clock.Token),
		bus:      bus,
		observer: nopObserver{},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.spawner = targets.NewSpawner(arena, g.rng)
	return g
}

func (g *Game) ID() string {
	return g.id
}

func (g *Game) Scene() modes.State {
	return g.ctrl.State()
}

func (g *Game) Config() modes.Config {
	return g.ctrl.Config()
}

func (g *Game) Stats() stats.Snapshot {
	return g.stats.Snapshot()
}

func (g *Game) LiveTargets() []*targets.Target {
	return g.live.GetList()
}

// Start resets all session state and begins a session under cfg.
func (g *Game) Start(cfg modes.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if g.ctrl.Running() {
		return ErrSessionRunning
	}
	now := g.clock.Now()

	g.sched.CancelAll()
	g.live.Clear()
	g.stats.Reset()
	g.expiries = make(map[int]clock.Token)
	g.summary = nil
	g.gen++
	g.id = uuid.New().String()
	g.lastTick = now
	g.lastShown = -1

	if err := g.ctrl.Start(cfg); err != nil {
		return err
	}
	limit := time.Duration(0)
	if cfg.Termination() == modes.ByTime {
		limit = cfg.TimeLimit
	}
	g.countdown = clock.NewCountdown(now, limit)

	g.log.Info(context.Background(), "session started",
		logger.String("session", g.id), logger.String("mode", cfg.String()))
	g.observer.SessionStarted(string(cfg.Mode))
	g.publish(events.Event{Kind: events.KindScene, Scene: string(modes.StateRunning)})

	gen := g.gen
	if g.countdown.Bounded() {
		g.sched.At(g.countdown.Deadline(), func(at time.Time) {
			if gen == g.gen {
				g.finish(at)
			}
		})
	}

	policy := cfg.Policy()
	g.spawn(now)
	if policy.StaggeredStart {
		for i := 1; i < policy.Concurrency; i++ {
			g.sched.After(now, time.Duration(i)*modes.HydraStagger, func(at time.Time) {
				if gen == g.gen && g.ctrl.Running() && g.live.Len() < policy.Concurrency {
					g.spawn(at)
				}
			})
		}
	}
	return nil
}

// HandleInput resolves one pointer event at time at. It is a no-op unless a
// session is running. Timers due by at fire first.
func (g *Game) HandleInput(p targets.Point, at time.Time) Outcome {
	g.advance(at)
	if !g.ctrl.Running() {
		return Outcome{Band: -1, Stats: g.stats.Snapshot()}
	}
	now := g.lastTick
	mode := string(g.ctrl.Config().Mode)

	res := targets.Resolve(p, g.live.GetList())
	if !res.Hit {
		g.stats.RecordMiss()
		g.observer.Shot(mode, false)
		snap := g.stats.Snapshot()
		g.publish(events.Event{Kind: events.KindMiss, X: p.X, Y: p.Y, Band: -1, Stats: &snap})
		return Outcome{Accepted: true, Band: -1, Stats: snap}
	}

	g.stats.RecordHit(res.Points)
	g.observer.Shot(mode, true)
	g.retire(res.Target.ID)
	snap := g.stats.Snapshot()
	g.publish(events.Event{Kind: events.KindHit, TargetID: res.Target.ID, Band: res.Band, X: p.X, Y: p.Y, Stats: &snap})

	out := Outcome{Accepted: true, Hit: true, TargetID: res.Target.ID, Band: res.Band, Points: res.Points}
	if g.ctrl.ShouldTerminate(g.stats.Score(), g.countdown.Elapsed(now)) {
		g.finish(now)
	} else {
		g.replenish(now)
	}
	out.Stats = g.stats.Snapshot()
	out.Completed = !g.ctrl.Running()
	return out
}

// Tick is the frame step: due timers fire and moving targets advance to now.
func (g *Game) Tick(now time.Time) {
	g.advance(now)
	if !g.ctrl.Running() {
		return
	}
	shown := g.countdown.ElapsedSeconds(g.lastTick)
	if g.countdown.Bounded() {
		shown = g.countdown.RemainingSeconds(g.lastTick)
	}
	if shown != g.lastShown {
		g.lastShown = shown
		g.publish(events.Event{
			Kind:      events.KindTick,
			Elapsed:   g.countdown.ElapsedSeconds(g.lastTick),
			Remaining: g.countdown.RemainingSeconds(g.lastTick),
		})
	}
}

// Complete ends a running session now. It reports whether this call emitted
// the summary; later calls return the same summary and false.
// Timers due by now fire first, so a passed deadline ends the session at
// its limit.
func (g *Game) Complete() (stats.Summary, bool) {
	if g.ctrl.Running() {
		now := g.clock.Now()
		g.advance(now)
		if g.ctrl.Running() {
			g.finish(now)
		}
		return *g.summary, true
	}
	if g.summary != nil {
		return *g.summary, false
	}
	return stats.Summary{}, false
}

// Abort drops a running session without a summary.
func (g *Game) Abort() {
	if !g.ctrl.Running() {
		return
	}
	g.gen++
	g.sched.CancelAll()
	g.expiries = make(map[int]clock.Token)
	g.live.Clear()
	g.ctrl.Reset()
	g.publish(events.Event{Kind: events.KindScene, Scene: string(modes.StateIdle)})
}

func (g *Game) View() View {
	now := g.lastTick
	if g.ctrl.Running() {
		now = g.clock.Now()
	}
	v := View{
		Session: g.id,
		Scene:   g.ctrl.State(),
		Stats:   g.stats.Snapshot(),
		Targets: make([]events.TargetView, 0, g.live.Len()),
		Summary: g.summary,
	}
	if g.ctrl.State() != modes.StateIdle {
		v.Mode = string(g.ctrl.Config().Mode)
		v.Elapsed = g.countdown.ElapsedSeconds(now)
		v.Remaining = g.countdown.RemainingSeconds(now)
	}
	for _, t := range g.live.GetList() {
		v.Targets = append(v.Targets, viewOf(t))
	}
	return v
}

// NextDeadline is the earliest pending timer, used to sleep precisely.
func (g *Game) NextDeadline() (time.Time, bool) {
	return g.sched.NextDeadline()
}

func (g *Game) advance(now time.Time) {
	if now.Before(g.lastTick) {
		now = g.lastTick
	}
	g.sched.RunDue(now)
	if !g.ctrl.Running() {
		return
	}
	dt := now.Sub(g.lastTick)
	g.lastTick = now
	for _, t := range g.live.GetList() {
		t.Advance(dt, g.arena)
	}
}

func (g *Game) spawn(now time.Time) *targets.Target {
	cfg := g.ctrl.Config()
	if cfg.Policy().Replace {
		for _, old := range g.live.GetList() {
			g.retire(old.ID)
			g.publish(events.Event{Kind: events.KindRemove, TargetID: old.ID})
		}
	}

	t := g.spawner.Spawn(targets.SpawnOptions{
		Size:     cfg.TargetSize,
		Move:     cfg.Moves(),
		Speed:    cfg.Speed,
		Lifetime: cfg.Lifetime,
	}, now)
	g.live.Put(t)

	if t.Expires() {
		gen, id := g.gen, t.ID
		g.expiries[id] = g.sched.At(t.ExpiresAt, func(at time.Time) {
			g.expire(gen, id, at)
		})
	}
	view := viewOf(t)
	g.publish(events.Event{Kind: events.KindSpawn, Target: &view})
	return t
}

// replenish restores the mode's population after a removal.
func (g *Game) replenish(now time.Time) {
	policy := g.ctrl.Config().Policy()
	if policy.Replace {
		g.spawn(now)
		return
	}
	for i := policy.Deficit(g.live.Len()); i > 0; i-- {
		g.spawn(now)
	}
}

// retire removes a live target and cancels its expiry.
func (g *Game) retire(id int) bool {
	if !g.live.Remove(id) {
		return false
	}
	if tok, ok := g.expiries[id]; ok {
		g.sched.Cancel(tok)
		delete(g.expiries, id)
	}
	return true
}

func (g *Game) expire(gen uint64, id int, at time.Time) {
	if gen != g.gen || !g.ctrl.Running() {
		return
	}
	delete(g.expiries, id)
	if !g.live.Remove(id) {
		return
	}
	g.stats.RecordExpiry()
	g.observer.TargetExpired(string(g.ctrl.Config().Mode))
	snap := g.stats.Snapshot()
	g.publish(events.Event{Kind: events.KindExpire, TargetID: id, Stats: &snap})
	g.replenish(at)
}

func (g *Game) finish(at time.Time) {
	if !g.ctrl.Finish() {
		return
	}
	g.sched.CancelAll()
	g.expiries = make(map[int]clock.Token)
	g.live.Clear()
	if at.After(g.lastTick) {
		g.lastTick = at
	}

	elapsed := g.countdown.Elapsed(at)
	summary := g.stats.Summarize(string(g.ctrl.Config().Mode), int(elapsed/time.Second))
	g.summary = &summary

	g.log.Info(context.Background(), "session complete",
		logger.String("session", g.id),
		logger.Int("score", summary.Score),
		logger.Int("accuracy", summary.Accuracy),
		logger.Int("best_streak", summary.BestStreak))
	g.observer.SessionCompleted(summary, elapsed)
	g.publish(events.Event{Kind: events.KindComplete, Summary: g.summary})
	g.publish(events.Event{Kind: events.KindScene, Scene: string(modes.StateComplete)})

	if g.onComplete != nil {
		g.onComplete(g.id, summary)
	}
}

func (g *Game) publish(ev events.Event) {
	if g.bus == nil {
		return
	}
	ev.Session = g.id
	if !g.bus.Publish(ev) {
		g.log.Debug(context.Background(), "event dropped", logger.String("kind", string(ev.Kind)))
	}
}

func viewOf(t *targets.Target) events.TargetView {
	v := events.TargetView{
		ID:     t.ID,
		X:      t.Center.X,
		Y:      t.Center.Y,
		Radius: t.Radius,
		Rings:  t.Rings,
		Color:  t.Color,
	}
	if t.Motion != nil {
		v.Moving = true
		v.VX = t.Motion.DX * t.Motion.Speed
		v.VY = t.Motion.DY * t.Motion.Speed
	}
	return v
}
