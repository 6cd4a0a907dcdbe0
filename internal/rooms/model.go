package rooms

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"aimy/internal/broadcast"
	"aimy/internal/clock"
	"aimy/internal/config"
	"aimy/internal/events"
	"aimy/internal/gamedata"
	"aimy/internal/host"
	"aimy/internal/idle"
	"aimy/internal/logger"
	"aimy/internal/wshub"
)

// Room is one play space: a game runner, its event fan-out and the sockets
// watching it.
type Room struct {
	Code        string
	HostID      string
	PlayerID    string
	Settings    config.Settings
	Runner      *gamedata.Runner
	Bus         *events.Bus
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub
	Idle        *idle.Watcher
	CreatedAt   time.Time

	cancel context.CancelFunc
	piped  chan struct{}
	clock  clock.Clock
	log    logger.Logger

	lastActive atomic.Int64 // unix nanos
}

// Activity marks the room as in use and feeds the idle watcher, if the
// room has one.
func (r *Room) Activity() {
	r.lastActive.Store(r.clock.Now().UnixNano())
	if r.Idle != nil {
		r.Idle.Activity()
	}
}

// LastActive is when the room last saw a start, shot or activity message.
func (r *Room) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

// stale reports whether the room has had no use for ttl and is not in the
// middle of a session.
func (r *Room) stale(now time.Time, ttl time.Duration) bool {
	if r.Runner.Running() {
		return false
	}
	return now.Sub(r.LastActive()) > ttl
}

// Notify relays a persistence notice to sockets and SSE subscribers.
func (r *Room) Notify(n host.Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		r.log.Error(context.Background(), "marshal notice", logger.Error(err))
		return
	}
	r.Hub.Broadcast(data)
	r.Broadcaster.Broadcast(n.Type, data)
}

// pipe relays encoded session events to the room's sockets.
func (r *Room) pipe(sub chan broadcast.Message) {
	defer close(r.piped)
	for msg := range sub {
		r.Hub.Broadcast(msg.Data)
	}
}

// close stops the runner before closing the bus it publishes to.
func (r *Room) close() {
	if r.Idle != nil {
		r.Idle.Stop()
	}
	r.cancel()
	<-r.Runner.Done()
	r.Bus.Close()
	<-r.Broadcaster.Done()
	<-r.piped
	r.Hub.Close()
}
