package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord is one completed session. Settings holds the JSON settings
// object the session was played with.
type SessionRecord struct {
	ID         string
	PlayerID   string // empty when the room has no registered player
	RoomCode   string
	GameMode   string
	Difficulty string
	Score      int
	TimeSecs   int
	Accuracy   int
	BestStreak int
	Settings   []byte
	EndedAt    time.Time
}

func (d *DB) RecordSession(ctx context.Context, rec SessionRecord) error {
	// lib/pq sends []byte as bytea, so the JSON goes over as text.
	settings := rec.Settings
	if len(settings) == 0 {
		settings = []byte("{}")
	}
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO sessions (id, player_id, room_code, game_mode, difficulty, score, time_secs, accuracy, best_streak, settings, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, nullString(rec.PlayerID), rec.RoomCode, rec.GameMode, rec.Difficulty,
		rec.Score, rec.TimeSecs, rec.Accuracy, rec.BestStreak, string(settings), rec.EndedAt)
	if err != nil {
		return fmt.Errorf("recording session: %w", err)
	}
	return nil
}

func (d *DB) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	var (
		rec      SessionRecord
		playerID sql.NullString
	)
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, player_id, room_code, game_mode, difficulty, score, time_secs, accuracy, best_streak, settings, ended_at
		FROM sessions WHERE id = $1
	`, id).Scan(&rec.ID, &playerID, &rec.RoomCode, &rec.GameMode, &rec.Difficulty,
		&rec.Score, &rec.TimeSecs, &rec.Accuracy, &rec.BestStreak, &rec.Settings, &rec.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	rec.PlayerID = playerID.String
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
