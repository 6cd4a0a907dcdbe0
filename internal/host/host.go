// Package host starts sessions from the configured settings and persists
// each completed one to disk and the database.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"aimy/internal/analytics"
	"aimy/internal/clock"
	"aimy/internal/config"
	"aimy/internal/db"
	"aimy/internal/gamedata"
	"aimy/internal/idle"
	"aimy/internal/logger"
	"aimy/internal/stats"
	"aimy/internal/statsfile"

	"golang.org/x/sync/errgroup"
)

const persistTimeout = 10 * time.Second

type SessionStore interface {
	RecordSession(ctx context.Context, rec db.SessionRecord) error
	AwardBadge(ctx context.Context, playerID, badgeID string, sessionID *string) error
}

// Analytics reads back what was stored to evaluate badges.
type Analytics interface {
	FillShotStats(ctx context.Context, s *analytics.SessionStats) error
	GetPlayerLifetimeStats(ctx context.Context, playerID string) (*analytics.PlayerLifetimeStats, error)
}

type ErrorRecorder interface {
	PersistError(sink string)
}

type nopErrors struct{}

func (nopErrors) PersistError(string) {}

// Session identifies a completed session and the settings it ran with.
type Session struct {
	ID       string
	PlayerID string
	RoomCode string
	Settings config.Settings
}

// Notice is the non-fatal persistence report sent to the room after a
// session completes.
type Notice struct {
	Type    string            `json:"t"`
	Session string            `json:"session"`
	Path    string            `json:"path,omitempty"`
	Stored  bool              `json:"stored,omitempty"`
	Badges  []analytics.Badge `json:"badges,omitempty"`
	Errors  []string          `json:"errors,omitempty"`
}

type Host struct {
	saver     *statsfile.Saver
	store     SessionStore
	analytics Analytics
	shots     *ShotRecorder
	errs      ErrorRecorder
	clock     clock.Clock
	log       logger.Logger
	wg        sync.WaitGroup
}

type Option func(*Host)

// WithSaver enables file persistence for sessions whose settings allow it.
func WithSaver(s *statsfile.Saver) Option {
	return func(h *Host) { h.saver = s }
}

func WithStore(s SessionStore, a Analytics) Option {
	return func(h *Host) {
		h.store = s
		h.analytics = a
	}
}

func WithShotRecorder(r *ShotRecorder) Option {
	return func(h *Host) { h.shots = r }
}

func WithErrorRecorder(e ErrorRecorder) Option {
	return func(h *Host) {
		if e != nil {
			h.errs = e
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(h *Host) { h.clock = c }
}

func New(opts ...Option) *Host {
	h := &Host{
		errs:  nopErrors{},
		clock: clock.Real{},
		log:   logger.Named("host"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewSaver builds the file sink described by settings, resolving the output
// directory against the working and home directories.
func NewSaver(s config.Settings) (*statsfile.Saver, error) {
	format, err := statsfile.ParseFormat(s.StatsFormat)
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return statsfile.NewSaver(statsfile.ResolveDir(s.StatsDirectory, wd, home), format)
}

// StartSession starts a session on r with the mode configuration derived from s.
func (h *Host) StartSession(ctx context.Context, r *gamedata.Runner, s config.Settings) error {
	cfg, err := s.ModeConfig()
	if err != nil {
		return err
	}
	return r.Start(ctx, cfg)
}

// IdleWatcher returns a watcher that starts a session on r after the
// configured idle period, or nil when idle starts are disabled.
func (h *Host) IdleWatcher(ctx context.Context, r *gamedata.Runner, s config.Settings) *idle.Watcher {
	if !s.EnableExtension {
		return nil
	}
	return idle.New(time.Duration(s.IdleTimer)*time.Millisecond, func() {
		err := h.StartSession(ctx, r, s)
		switch {
		case err == nil:
			h.log.Info(ctx, "idle start")
		case errors.Is(err, gamedata.ErrSessionRunning):
			h.log.Debug(ctx, "idle start skipped, session running")
		default:
			h.log.Warn(ctx, "idle start failed", logger.Error(err))
		}
	})
}

// Completion returns a game completion handler. Persistence runs on its own
// goroutine; notify, if set, receives the resulting Notice.
func (h *Host) Completion(sess Session, notify func(Notice)) func(string, stats.Summary) {
	return func(id string, s stats.Summary) {
		sess := sess
		sess.ID = id
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			n := h.Persist(ctx, sess, s)
			if notify != nil && (n.Path != "" || n.Stored || len(n.Errors) > 0) {
				notify(n)
			}
		}()
	}
}

// Wait blocks until in-flight persistence has finished.
func (h *Host) Wait() {
	h.wg.Wait()
}

// Persist writes the session to every configured sink concurrently. Failures
// are logged and reported in the Notice, never returned.
func (h *Host) Persist(ctx context.Context, sess Session, s stats.Summary) Notice {
	at := h.clock.Now()
	n := Notice{Type: "persisted", Session: sess.ID}

	var (
		g       errgroup.Group
		fileErr error
		dbErr   error
	)
	if h.saver != nil && sess.Settings.EnableStatsSave {
		g.Go(func() error {
			rec := statsfile.NewRecord(s, sess.Settings, at)
			rec.ID = sess.ID
			n.Path, fileErr = h.saver.Save(rec)
			return fileErr
		})
	}
	if h.store != nil {
		g.Go(func() error {
			n.Badges, dbErr = h.storeSession(ctx, sess, s, at)
			return dbErr
		})
	}
	if err := g.Wait(); err != nil {
		h.log.Warn(ctx, "persisting session", logger.String("session", sess.ID), logger.Error(err))
	}

	if fileErr != nil {
		h.errs.PersistError("file")
		n.Errors = append(n.Errors, fileErr.Error())
	} else if n.Path != "" {
		h.log.Info(ctx, "session saved", logger.String("session", sess.ID), logger.String("path", n.Path))
	}
	if dbErr != nil {
		h.errs.PersistError("db")
		n.Errors = append(n.Errors, dbErr.Error())
	} else {
		n.Stored = h.store != nil
	}
	return n
}
