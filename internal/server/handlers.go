package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"aimy/internal/analytics"
	"aimy/internal/config"
	"aimy/internal/db"
	"aimy/internal/gamedata"
	"aimy/internal/host"
	"aimy/internal/logger"
	"aimy/internal/metrics"
	"aimy/internal/modes"
	"aimy/internal/rooms"
	"aimy/internal/stats"
	"aimy/internal/targets"
	"aimy/internal/utility"

	"github.com/google/uuid"
)

type Server struct {
	Rooms     *rooms.Store
	Host      *host.Host
	Settings  config.Settings    // defaults for new rooms
	DB        *db.DB             // nil if no database configured
	Analytics *analytics.Queries // nil if no database configured
	Metrics   *metrics.Manager
	log       logger.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// roomFromPath resolves the {code} path segment, writing a 404 when there is no such room.
func (s *Server) roomFromPath(w http.ResponseWriter, r *http.Request) *rooms.Room {
	code, ok := rooms.NormalizeCode(r.PathValue("code"))
	var room *rooms.Room
	if ok {
		room = s.Rooms.Get(code)
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
	}
	return room
}

type createRoomRequest struct {
	Name     string          `json:"name"`
	Color    string          `json:"color"`
	Settings json.RawMessage `json:"settings"`
}

type createRoomResponse struct {
	Code     string          `json:"code"`
	HostID   string          `json:"hostId"`
	PlayerID string          `json:"playerId,omitempty"`
	Settings config.Settings `json:"settings"`
}

// handleCreateRoom opens a room. Settings in the body override the
// server defaults field by field.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings := s.Settings
	if len(req.Settings) > 0 {
		if err := json.Unmarshal(req.Settings, &settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid settings")
			return
		}
	}
	settings.Clamp()
	if _, err := settings.ModeConfig(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hostID := uuid.New().String()
	var playerID string
	if s.DB != nil && strings.TrimSpace(req.Name) != "" {
		color := req.Color
		if color == "" {
			color = utility.RandomColorHex()
		}
		if err := s.DB.UpsertPlayer(r.Context(), hostID, strings.TrimSpace(req.Name), color); err != nil {
			s.log.Error(r.Context(), "upsert player", logger.Error(err))
		} else {
			playerID = hostID
		}
	}

	room, err := s.Rooms.Create(hostID, playerID, settings)
	if err != nil {
		s.log.Error(r.Context(), "create room", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "room_code",
		Value:    room.Code,
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusCreated, createRoomResponse{
		Code:     room.Code,
		HostID:   hostID,
		PlayerID: playerID,
		Settings: settings,
	})
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	room := s.roomFromPath(w, r)
	if room == nil {
		return
	}
	s.Rooms.Delete(room.Code)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	room := s.roomFromPath(w, r)
	if room == nil {
		return
	}
	v, err := room.Runner.View(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	room := s.roomFromPath(w, r)
	if room == nil {
		return
	}
	room.Activity()
	err := s.Host.StartSession(r.Context(), room.Runner, room.Settings)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, gamedata.ErrSessionRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, modes.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

type shotRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func pointOf(req shotRequest) targets.Point {
	return targets.Point{X: req.X, Y: req.Y}
}

func (s *Server) handleShot(w http.ResponseWriter, r *http.Request) {
	room := s.roomFromPath(w, r)
	if room == nil {
		return
	}
	var req shotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid shot")
		return
	}
	room.Activity()
	out, err := room.Runner.Input(r.Context(), pointOf(req))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	room := s.roomFromPath(w, r)
	if room == nil {
		return
	}
	room.Activity()
	w.WriteHeader(http.StatusNoContent)
}

type completeResponse struct {
	Summary stats.Summary `json:"summary"`
	Emitted bool          `json:"emitted"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	room := s.roomFromPath(w, r)
	if room == nil {
		return
	}
	summary, emitted, err := room.Runner.Complete(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Summary: summary, Emitted: emitted})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	room := s.roomFromPath(w, r)
	if room == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgChan := room.Broadcaster.Subscribe()
	defer room.Broadcaster.Unsubscribe(msgChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			fmt.Fprintf(w, "data: %s\n\n", msg.Data)
			flusher.Flush()
		}
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Rooms: len(s.Rooms.List())}
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			resp.Status = "db_error"
			resp.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
