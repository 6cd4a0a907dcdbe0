package analytics

import "time"

// SessionStats is one completed session joined with its shot aggregates.
type SessionStats struct {
	SessionID      string  `json:"sessionId"`
	PlayerID       string  `json:"playerId,omitempty"`
	PlayerName     string  `json:"playerName,omitempty"`
	GameMode       string  `json:"gameMode"`
	Score          int     `json:"score"`
	TimeSecs       int     `json:"time"`
	Accuracy       int     `json:"accuracy"`
	BestStreak     int     `json:"bestStreak"`
	Shots          int     `json:"shots"`
	Bullseyes      int     `json:"bullseyes"`
	BullseyeRate   float64 `json:"bullseyeRate"` // percentage of hits in the innermost band
	ShotsPerSecond float64 `json:"shotsPerSecond"`
}

type PlayerLifetimeStats struct {
	PlayerID       string  `json:"playerId"`
	PlayerName     string  `json:"playerName"`
	PlayerColor    string  `json:"playerColor"`
	SessionsPlayed int     `json:"sessionsPlayed"`
	TotalScore     int     `json:"totalScore"`
	BestScore      int     `json:"bestScore"`
	BestAccuracy   int     `json:"bestAccuracy"`
	BestStreak     int     `json:"bestStreak"`
	Badges         []Badge `json:"badges"`
}

type LeaderboardEntry struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	PlayerColor string `json:"playerColor"`
	Value       int    `json:"value"`
	Rank        int    `json:"rank"`
}

// ModeStats aggregates every recorded session of one mode.
type ModeStats struct {
	GameMode    string     `json:"gameMode"`
	Sessions    int        `json:"sessions"`
	AvgScore    float64    `json:"avgScore"`
	AvgAccuracy float64    `json:"avgAccuracy"`
	BestScore   int        `json:"bestScore"`
	BestStreak  int        `json:"bestStreak"`
	LastPlayed  *time.Time `json:"lastPlayed,omitempty"`
}
