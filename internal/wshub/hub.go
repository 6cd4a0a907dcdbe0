package wshub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"aimy/internal/logger"
	"aimy/internal/targets"

	"github.com/coder/websocket"
)

// Client message types.
const (
	TypeStart    = "start"
	TypeShot     = "shot"
	TypeActivity = "activity"
)

var ErrBadMessage = errors.New("bad client message")

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type string   `json:"t"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

// Point is the shot position. Missing coordinates yield a point that never hits.
func (m ClientMessage) Point() targets.Point {
	p := targets.Point{X: math.NaN(), Y: math.NaN()}
	if m.X != nil {
		p.X = *m.X
	}
	if m.Y != nil {
		p.Y = *m.Y
	}
	return p
}

// Decode parses one client frame. A shot frame whose coordinates do not
// decode is still a shot, and resolves as a miss.
func Decode(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		var head struct {
			Type string `json:"t"`
		}
		if json.Unmarshal(data, &head) == nil && head.Type == TypeShot {
			return ClientMessage{Type: TypeShot}, nil
		}
		return ClientMessage{}, fmt.Errorf("%w: %w", ErrBadMessage, err)
	}
	switch m.Type {
	case TypeStart, TypeShot, TypeActivity:
		return m, nil
	}
	return ClientMessage{}, fmt.Errorf("%w: unknown type %q", ErrBadMessage, m.Type)
}

// ServerMessage is the JSON structure the hub itself sends to clients.
// Session events are relayed as already encoded bytes.
type ServerMessage struct {
	Type     string `json:"t"`
	ClientID string `json:"id,omitempty"`
	Error    string `json:"err,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub manages per-room WebSocket connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     logger.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     logger.Named("wshub"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client and closes its Send channel, then broadcasts a leave message.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		close(c.Send)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		h.BroadcastExcept(id, ServerMessage{Type: "leave", ClientID: id})
	}
}

// Close unregisters every client without announcing it.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast relays encoded bytes to every client. Non-blocking: drops if channel full.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// BroadcastExcept sends a message to all clients except the sender. Non-blocking: drops if channel full.
func (h *Hub) BroadcastExcept(senderID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error(context.Background(), "marshal error", logger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		if id == senderID {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// SendTo encodes v and queues it for one client. It reports false when the
// client is gone or its queue is full.
func (h *Hub) SendTo(id string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error(context.Background(), "marshal error", logger.Error(err))
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	if !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}
