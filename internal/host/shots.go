package host

import (
	"context"
	"time"

	"aimy/internal/db"
	"aimy/internal/events"
	"aimy/internal/logger"
)

const (
	shotBatchSize     = 50
	shotFlushInterval = 500 * time.Millisecond
)

type ShotWriter interface {
	BatchRecordShots(ctx context.Context, events []db.ShotEvent) error
}

// ShotRecorder batches per-shot rows into the database off the game loop.
type ShotRecorder struct {
	db     ShotWriter
	buffer chan db.ShotEvent
	flush  chan chan error
	done   chan struct{}
	errs   ErrorRecorder
	log    logger.Logger
}

func NewShotRecorder(w ShotWriter, errs ErrorRecorder) *ShotRecorder {
	if errs == nil {
		errs = nopErrors{}
	}
	return &ShotRecorder{
		db:     w,
		buffer: make(chan db.ShotEvent, 1000),
		flush:  make(chan chan error),
		done:   make(chan struct{}),
		errs:   errs,
		log:    logger.Named("shots"),
	}
}

// ShotFromEvent converts a hit or miss event into a shot row.
func ShotFromEvent(ev events.Event, at time.Time) (db.ShotEvent, bool) {
	switch ev.Kind {
	case events.KindHit, events.KindMiss:
	default:
		return db.ShotEvent{}, false
	}
	return db.ShotEvent{
		SessionID: ev.Session,
		TargetID:  ev.TargetID,
		Hit:       ev.Kind == events.KindHit,
		Band:      ev.Band,
		X:         ev.X,
		Y:         ev.Y,
		ShotAt:    at,
	}, true
}

// Add queues a shot. It never blocks; a full buffer drops the shot.
func (r *ShotRecorder) Add(ev db.ShotEvent) bool {
	select {
	case r.buffer <- ev:
		return true
	default:
		return false
	}
}

// Flush writes everything queued so far. After Run has returned there is
// nothing left to write.
func (r *ShotRecorder) Flush(ctx context.Context) error {
	done := make(chan error, 1)
	select {
	case r.flush <- done:
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run writes batches until ctx is cancelled, then writes what is left.
func (r *ShotRecorder) Run(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(shotFlushInterval)
	defer ticker.Stop()

	batch := make([]db.ShotEvent, 0, shotBatchSize)
	write := func(wctx context.Context) error {
		if len(batch) == 0 {
			return nil
		}
		err := r.db.BatchRecordShots(wctx, batch)
		if err != nil {
			r.errs.PersistError("shots")
			r.log.Error(wctx, "batch record shots", logger.Int("shots", len(batch)), logger.Error(err))
		}
		batch = batch[:0]
		return err
	}
	drain := func() {
		for {
			select {
			case ev := <-r.buffer:
				batch = append(batch, ev)
			default:
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			wctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			write(wctx)
			cancel()
			return
		case ev := <-r.buffer:
			batch = append(batch, ev)
			if len(batch) >= shotBatchSize {
				write(ctx)
			}
		case done := <-r.flush:
			drain()
			done <- write(ctx)
		case <-ticker.C:
			write(ctx)
		}
	}
}
