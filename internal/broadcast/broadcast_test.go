package broadcast

import (
	"encoding/json"
	"testing"
	"time"

	"aimy/internal/events"
)

func TestNewBroadcaster(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	if b == nil {
		t.Fatal("NewBroadcaster() returned nil")
	}
	bus.Close()
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() returned nil")
	}

	b.Mu.Lock()
	if len(b.Clients) != 1 {
		t.Errorf("clients count = %d, want 1", len(b.Clients))
	}
	b.Mu.Unlock()

	b.Unsubscribe(ch)
	b.Unsubscribe(ch) // second call is a no-op

	b.Mu.Lock()
	if len(b.Clients) != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", len(b.Clients))
	}
	b.Mu.Unlock()
}

func TestBroadcaster_Broadcast(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	b := NewBroadcaster(bus)

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Broadcast("test-event", []byte("hello"))

	for i, ch := range []chan Message{ch1, ch2} {
		select {
		case msg := <-ch:
			if msg.Event != "test-event" || string(msg.Data) != "hello" {
				t.Errorf("ch%d got %+v, want event=test-event, data=hello", i+1, msg)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("ch%d timed out", i+1)
		}
	}

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch2)
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()

	for i := 0; i < cap(ch); i++ {
		b.Broadcast("fill", nil)
	}

	done := make(chan bool)
	go func() {
		b.Broadcast("overflow", nil)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked on full channel")
	}

	b.Unsubscribe(ch)
}

func TestBroadcaster_ForwardsBusEvents(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()
	bus.Publish(events.Event{Kind: events.KindScene, Session: "s1", Scene: "running"})

	select {
	case msg := <-ch:
		if msg.Event != "scene" {
			t.Errorf("Event = %q, want scene", msg.Event)
		}
		var ev events.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
		if ev.Scene != "running" || ev.Session != "s1" {
			t.Errorf("got %+v, want scene=running session=s1", ev)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}
}

func TestBroadcaster_BusCloseEndsSubscribers(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	ch := b.Subscribe()

	bus.Close()

	select {
	case <-b.Done():
	case <-time.After(1 * time.Second):
		t.Fatal("broadcaster did not stop after bus close")
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel still open after bus close")
	}
	if _, ok := <-b.Subscribe(); ok {
		t.Error("Subscribe after close returned an open channel")
	}
	b.Unsubscribe(ch)
}

func TestBroadcaster_Taps(t *testing.T) {
	bus := events.NewBus()
	var kinds []events.Kind
	b := NewBroadcaster(bus, func(ev events.Event) { kinds = append(kinds, ev.Kind) })

	bus.Publish(events.Event{Kind: events.KindHit})
	bus.Publish(events.Event{Kind: events.KindMiss})
	bus.Close()
	<-b.Done()

	if len(kinds) != 2 || kinds[0] != events.KindHit || kinds[1] != events.KindMiss {
		t.Errorf("tapped kinds = %v, want [hit miss]", kinds)
	}
}
