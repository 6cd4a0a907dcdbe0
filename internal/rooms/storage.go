package rooms

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"aimy/internal/broadcast"
	"aimy/internal/clock"
	"aimy/internal/config"
	"aimy/internal/events"
	"aimy/internal/gamedata"
	"aimy/internal/host"
	"aimy/internal/logger"
	"aimy/internal/targets"
	"aimy/internal/wshub"
)

const (
	staleTTL      = 1 * time.Hour
	sweepInterval = 5 * time.Minute
)

var ErrNoCode = errors.New("failed to generate unique room code")

// Deps are shared by every room in a store.
type Deps struct {
	Arena    targets.Arena
	Host     *host.Host
	Observer gamedata.Observer
	Shots    *host.ShotRecorder // nil without a database
	Clock    clock.Clock
	Frame    time.Duration

	// Count is told the number of open rooms after every change.
	Count func(n int)
}

type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
	deps  Deps
	ctx   context.Context
	log   logger.Logger
}

// NewStore returns an empty store. Room runners live until their room is
// deleted or ctx ends.
func NewStore(ctx context.Context, deps Deps) *Store {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Host == nil {
		deps.Host = host.New()
	}
	s := &Store{
		rooms: make(map[string]*Room),
		deps:  deps,
		ctx:   ctx,
		log:   logger.Named("rooms"),
	}
	go s.sweepStale()
	return s
}

// Create opens a room running its own game. playerID names a registered
// player the room's sessions are credited to, or is empty.
func (s *Store) Create(hostID, playerID string, settings config.Settings) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Try up to 10 times to generate a unique code
	for range 10 {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}

		room := s.open(code, hostID, playerID, settings)
		s.rooms[code] = room
		s.log.Info(s.ctx, "room created", logger.String("room", code), logger.String("mode", settings.GameMode))
		s.count()
		return room, nil
	}
	return nil, fmt.Errorf("%w after 10 attempts", ErrNoCode)
}

func (s *Store) open(code, hostID, playerID string, settings config.Settings) *Room {
	ctx, cancel := context.WithCancel(s.ctx)
	room := &Room{
		Code:      code,
		HostID:    hostID,
		PlayerID:  playerID,
		Settings:  settings,
		Bus:       events.NewBus(),
		Hub:       wshub.NewHub(),
		CreatedAt: s.deps.Clock.Now(),
		cancel:    cancel,
		piped:     make(chan struct{}),
		clock:     s.deps.Clock,
		log:       s.log.Named(code),
	}

	var taps []func(events.Event)
	if s.deps.Shots != nil {
		taps = append(taps, func(ev events.Event) {
			if shot, ok := host.ShotFromEvent(ev, s.deps.Clock.Now()); ok {
				s.deps.Shots.Add(shot)
			}
		})
	}
	room.Broadcaster = broadcast.NewBroadcaster(room.Bus, taps...)

	completion := s.deps.Host.Completion(host.Session{
		PlayerID: playerID,
		RoomCode: code,
		Settings: settings,
	}, room.Notify)
	game := gamedata.NewGame(s.deps.Clock, s.deps.Arena, room.Bus,
		gamedata.WithObserver(s.deps.Observer),
		gamedata.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		gamedata.WithLogger(logger.Named("game").Named(code)),
		gamedata.WithCompletion(completion),
	)
	room.Runner = gamedata.NewRunner(game, s.deps.Clock, s.deps.Frame)
	room.Idle = s.deps.Host.IdleWatcher(ctx, room.Runner, settings)

	go room.Runner.Run(ctx)
	go room.pipe(room.Broadcaster.Subscribe())
	room.Activity()
	return room
}

func (s *Store) Get(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}

// Delete closes the room and waits for its goroutines to stop.
func (s *Store) Delete(code string) {
	s.mu.Lock()
	room, ok := s.rooms[code]
	delete(s.rooms, code)
	s.count()
	s.mu.Unlock()

	if ok {
		room.close()
		s.log.Info(s.ctx, "room closed", logger.String("room", code))
	}
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

// Close deletes every room.
func (s *Store) Close() {
	for _, r := range s.List() {
		s.Delete(r.Code)
	}
}

// count must be called with mu held.
func (s *Store) count() {
	if s.deps.Count != nil {
		s.deps.Count(len(s.rooms))
	}
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep(s.deps.Clock.Now())
		}
	}
}

// sweep deletes rooms unused for staleTTL. Rooms with a session in
// progress are kept.
func (s *Store) sweep(now time.Time) int {
	var stale []string
	s.mu.Lock()
	for code, room := range s.rooms {
		if room.stale(now, staleTTL) {
			stale = append(stale, code)
		}
	}
	s.mu.Unlock()

	for _, code := range stale {
		s.Delete(code)
	}
	return len(stale)
}
