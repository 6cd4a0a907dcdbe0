package wshub

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func newClient(id string, buf int) *Client {
	return &Client{ID: id, Send: make(chan []byte, buf)}
}

func TestRegisterAndBroadcastExcept(t *testing.T) {
	h := NewHub()

	c1 := newClient("c1", 16)
	c2 := newClient("c2", 16)
	c3 := newClient("c3", 16)

	h.Register(c1)
	h.Register(c2)
	h.Register(c3)

	h.BroadcastExcept("c1", ServerMessage{Type: "join", ClientID: "c1"})

	// c2 and c3 should receive the message, c1 should not
	select {
	case data := <-c2.Send:
		var got ServerMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "join" || got.ClientID != "c1" {
			t.Fatalf("unexpected message: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c2 did not receive message")
	}

	select {
	case <-c3.Send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c3 did not receive message")
	}

	select {
	case <-c1.Send:
		t.Fatal("c1 should not receive its own message")
	default:
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	h := NewHub()
	c1 := newClient("c1", 4)
	c2 := newClient("c2", 4)
	h.Register(c1)
	h.Register(c2)

	h.Broadcast([]byte(`{"t":"tick"}`))

	for _, c := range []*Client{c1, c2} {
		if got := string(<-c.Send); got != `{"t":"tick"}` {
			t.Errorf("%s got %s", c.ID, got)
		}
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestUnregisterBroadcastsLeave(t *testing.T) {
	h := NewHub()

	c1 := newClient("c1", 16)
	c2 := newClient("c2", 16)

	h.Register(c1)
	h.Register(c2)

	h.Unregister("c1")

	select {
	case data := <-c2.Send:
		var got ServerMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "leave" || got.ClientID != "c1" {
			t.Fatalf("expected leave for c1, got: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c2 did not receive leave message")
	}

	if _, ok := <-c1.Send; ok {
		t.Fatal("c1.Send should be closed")
	}
}

func TestUnregisterNonexistent(t *testing.T) {
	h := NewHub()
	// Should not panic
	h.Unregister("nonexistent")
}

func TestClose(t *testing.T) {
	h := NewHub()
	c := newClient("c1", 1)
	h.Register(c)
	h.Close()
	if _, ok := <-c.Send; ok {
		t.Fatal("Send should be closed")
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub()

	c := newClient("c1", 1)
	h.Register(c)

	c.Send <- []byte("filler")

	// This should not block; the message is dropped
	h.BroadcastExcept("other", ServerMessage{Type: "join", ClientID: "other"})
	h.Broadcast([]byte("more"))
	if h.SendTo("c1", ServerMessage{Type: "x"}) {
		t.Error("SendTo reported success on a full queue")
	}

	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}

	select {
	case <-c.Send:
		t.Fatal("should be empty after draining filler")
	default:
	}
}

func TestSendTo(t *testing.T) {
	h := NewHub()
	c := newClient("c1", 1)
	h.Register(c)

	if !h.SendTo("c1", ServerMessage{Type: "error", Error: "nope"}) {
		t.Fatal("SendTo = false, want true")
	}
	if got := string(<-c.Send); got != `{"t":"error","err":"nope"}` {
		t.Errorf("got %s", got)
	}
	if h.SendTo("missing", ServerMessage{}) {
		t.Error("SendTo to unknown client = true")
	}
}

func TestDecode(t *testing.T) {
	m, err := Decode([]byte(`{"t":"shot","x":10.5,"y":20}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p := m.Point()
	if m.Type != TypeShot || p.X != 10.5 || p.Y != 20 {
		t.Errorf("got %+v at %+v", m, p)
	}

	m, err = Decode([]byte(`{"t":"start"}`))
	if err != nil || m.Type != TypeStart {
		t.Errorf("Decode(start) = %+v, %v", m, err)
	}
}

func TestDecode_MalformedShotIsInvalidPoint(t *testing.T) {
	for _, raw := range []string{
		`{"t":"shot","x":"left","y":3}`,
		`{"t":"shot","y":3}`,
		`{"t":"shot"}`,
	} {
		m, err := Decode([]byte(raw))
		if err != nil {
			t.Errorf("Decode(%s) error = %v", raw, err)
			continue
		}
		if m.Type != TypeShot || m.Point().Valid() {
			t.Errorf("Decode(%s) = %+v, want shot with invalid point", raw, m)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, raw := range []string{`not json`, `{"t":"dance"}`, `{}`} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrBadMessage) {
			t.Errorf("Decode(%s) error = %v, want ErrBadMessage", raw, err)
		}
	}
}
