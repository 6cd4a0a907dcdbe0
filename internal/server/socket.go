package server

import (
	"context"
	"net/http"

	"aimy/internal/gamedata"
	"aimy/internal/logger"
	"aimy/internal/wshub"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

type stateMessage struct {
	Type string `json:"t"`
	gamedata.View
}

type outcomeMessage struct {
	Type string `json:"t"`
	gamedata.Outcome
}

// handleSocket carries pointer input in and the room's session events out.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	room := s.roomFromPath(w, r)
	if room == nil {
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket accept", logger.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &wshub.Client{ID: uuid.New().String(), Conn: conn, Send: make(chan []byte, 64)}
	room.Hub.Register(client)
	defer room.Hub.Unregister(client.ID)
	go client.WritePump(ctx)

	if v, err := room.Runner.View(ctx); err == nil {
		room.Hub.SendTo(client.ID, stateMessage{Type: "state", View: v})
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		msg, err := wshub.Decode(data)
		if err != nil {
			room.Hub.SendTo(client.ID, wshub.ServerMessage{Type: "error", Error: err.Error()})
			continue
		}
		room.Activity()

		switch msg.Type {
		case wshub.TypeStart:
			if err := s.Host.StartSession(ctx, room.Runner, room.Settings); err != nil {
				room.Hub.SendTo(client.ID, wshub.ServerMessage{Type: "error", Error: err.Error()})
			}
		case wshub.TypeShot:
			out, err := room.Runner.Input(ctx, msg.Point())
			if err != nil {
				return
			}
			room.Hub.SendTo(client.ID, outcomeMessage{Type: "outcome", Outcome: out})
		}
	}
}
