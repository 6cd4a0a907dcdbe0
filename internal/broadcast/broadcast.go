package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	"aimy/internal/events"
	"aimy/internal/logger"
)

// Message is one encoded session event. Event is the event kind, used as the
// SSE event name; Data is the JSON body.
type Message struct {
	Event string
	Data  []byte
}

// Broadcaster is the single consumer of a room's event bus. It encodes each
// event once and fans it out to every subscriber.
type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan Message]bool
	closed  bool
	taps    []func(events.Event)
	done    chan struct{}
	log     logger.Logger
}

// NewBroadcaster starts consuming bus. Each tap sees every event, in order,
// before it is encoded.
func NewBroadcaster(bus *events.Bus, taps ...func(events.Event)) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan Message]bool),
		taps:    taps,
		done:    make(chan struct{}),
		log:     logger.Named("broadcast"),
	}
	go b.forward(bus)
	return b
}

func (b *Broadcaster) forward(bus *events.Bus) {
	defer b.shutdown()
	for ev := range bus.Events {
		for _, tap := range b.taps {
			tap(ev)
		}
		data, err := json.Marshal(ev)
		if err != nil {
			b.log.Error(context.Background(), "marshal event", logger.String("kind", string(ev.Kind)), logger.Error(err))
			continue
		}
		b.Broadcast(string(ev.Kind), data)
	}
}

// shutdown closes every subscriber once the bus is drained.
func (b *Broadcaster) shutdown() {
	b.Mu.Lock()
	b.closed = true
	for ch := range b.Clients {
		delete(b.Clients, ch)
		close(ch)
	}
	b.Mu.Unlock()
	close(b.done)
}

// Done is closed after the bus has been closed and drained.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

// Subscribe returns a channel of encoded events. After the bus closes it
// returns an already closed channel.
func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, 64)
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.Clients[ch] = true
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.Clients[ch] {
		delete(b.Clients, ch)
		close(ch)
	}
}

func (b *Broadcaster) Broadcast(event string, data []byte) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- Message{Event: event, Data: data}:
		default:
			// skip clients with full data channels
		}
	}
}
