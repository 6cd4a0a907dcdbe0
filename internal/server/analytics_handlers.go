package server

import (
	"errors"
	"net/http"
	"strconv"

	"aimy/internal/analytics"
	"aimy/internal/logger"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// requireAnalytics writes a 503 when no database is configured.
func (s *Server) requireAnalytics(w http.ResponseWriter) bool {
	if s.Analytics == nil {
		writeError(w, http.StatusServiceUnavailable, "analytics requires a database connection")
		return false
	}
	return true
}

func (s *Server) handleAnalyticsLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalytics(w) {
		return
	}
	category := r.URL.Query().Get("cat")
	if category == "" {
		category = "score"
	}
	limit := defaultLeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	entries, err := s.Analytics.GetLeaderboard(r.Context(), category, r.URL.Query().Get("mode"), limit)
	if errors.Is(err, analytics.ErrUnknownCategory) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "leaderboard", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "error loading leaderboard")
		return
	}
	if entries == nil {
		entries = []analytics.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAnalyticsModes(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalytics(w) {
		return
	}
	out, err := s.Analytics.GetModeStats(r.Context())
	if err != nil {
		s.log.Error(r.Context(), "mode stats", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "error loading mode stats")
		return
	}
	if out == nil {
		out = []analytics.ModeStats{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnalyticsPlayer(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalytics(w) {
		return
	}
	stats, err := s.Analytics.GetPlayerLifetimeStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAnalyticsSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireAnalytics(w) {
		return
	}
	ss, err := s.Analytics.GetSessionStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*analytics.SessionStats
		Badges []analytics.Badge `json:"badges"`
	}{ss, analytics.EvaluateSessionBadges(*ss)})
}
