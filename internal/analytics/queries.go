package analytics

import (
	"context"
	"errors"
	"fmt"

	"aimy/internal/db"
	"aimy/internal/targets"
)

var ErrUnknownCategory = errors.New("unknown leaderboard category")

var bullseyeBand = len(targets.RingFractions) - 1

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

// FillShotStats adds the recorded-shot aggregates of a session to s.
func (q *Queries) FillShotStats(ctx context.Context, s *SessionStats) error {
	var hits int
	err := q.DB.QueryRow(ctx, `
		SELECT
			COUNT(*) AS shots,
			COUNT(*) FILTER (WHERE hit) AS hits,
			COUNT(*) FILTER (WHERE hit AND band = $2) AS bullseyes
		FROM shot_events
		WHERE session_id = $1
	`, s.SessionID, bullseyeBand).Scan(&s.Shots, &hits, &s.Bullseyes)
	if err != nil {
		return fmt.Errorf("getting shot stats: %w", err)
	}
	if hits > 0 {
		s.BullseyeRate = float64(s.Bullseyes) / float64(hits) * 100
	}
	if s.TimeSecs > 0 {
		s.ShotsPerSecond = float64(s.Shots) / float64(s.TimeSecs)
	}
	return nil
}

func (q *Queries) GetSessionStats(ctx context.Context, sessionID string) (*SessionStats, error) {
	rec, err := q.DB.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s := &SessionStats{
		SessionID:  rec.ID,
		PlayerID:   rec.PlayerID,
		GameMode:   rec.GameMode,
		Score:      rec.Score,
		TimeSecs:   rec.TimeSecs,
		Accuracy:   rec.Accuracy,
		BestStreak: rec.BestStreak,
	}
	if rec.PlayerID != "" {
		if p, err := q.DB.GetPlayer(ctx, rec.PlayerID); err == nil {
			s.PlayerName = p.Name
		}
	}
	if err := q.FillShotStats(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (q *Queries) GetPlayerLifetimeStats(ctx context.Context, playerID string) (*PlayerLifetimeStats, error) {
	stats := &PlayerLifetimeStats{PlayerID: playerID}

	err := q.DB.QueryRow(ctx, `SELECT name, color FROM players WHERE id = $1`, playerID).
		Scan(&stats.PlayerName, &stats.PlayerColor)
	if err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}

	err = q.DB.QueryRow(ctx, `
		SELECT
			COUNT(*) AS sessions_played,
			COALESCE(SUM(score), 0) AS total_score,
			COALESCE(MAX(score), 0) AS best_score,
			COALESCE(MAX(accuracy), 0) AS best_accuracy,
			COALESCE(MAX(best_streak), 0) AS best_streak
		FROM sessions
		WHERE player_id = $1
	`, playerID).Scan(&stats.SessionsPlayed, &stats.TotalScore, &stats.BestScore, &stats.BestAccuracy, &stats.BestStreak)
	if err != nil {
		return nil, fmt.Errorf("getting lifetime stats: %w", err)
	}

	stats.Badges = EvaluateLifetimeBadges(*stats)
	return stats, nil
}

// GetLeaderboard ranks players by category, optionally within one mode.
// An empty mode ranks across all modes.
func (q *Queries) GetLeaderboard(ctx context.Context, category, mode string, limit int) ([]LeaderboardEntry, error) {
	var query string
	switch category {
	case "score":
		query = `
			SELECT p.id, p.name, p.color, COALESCE(MAX(s.score), 0) AS value
			FROM players p
			JOIN sessions s ON s.player_id = p.id
			WHERE ($2 = '' OR s.game_mode = $2)
			GROUP BY p.id, p.name, p.color
			ORDER BY value DESC
			LIMIT $1`
	case "accuracy":
		query = `
			SELECT p.id, p.name, p.color, COALESCE(MAX(s.accuracy), 0) AS value
			FROM players p
			JOIN sessions s ON s.player_id = p.id
			WHERE ($2 = '' OR s.game_mode = $2)
			GROUP BY p.id, p.name, p.color
			ORDER BY value DESC
			LIMIT $1`
	case "streak":
		query = `
			SELECT p.id, p.name, p.color, COALESCE(MAX(s.best_streak), 0) AS value
			FROM players p
			JOIN sessions s ON s.player_id = p.id
			WHERE ($2 = '' OR s.game_mode = $2)
			GROUP BY p.id, p.name, p.color
			ORDER BY value DESC
			LIMIT $1`
	case "sessions":
		query = `
			SELECT p.id, p.name, p.color, COUNT(*) AS value
			FROM players p
			JOIN sessions s ON s.player_id = p.id
			WHERE ($2 = '' OR s.game_mode = $2)
			GROUP BY p.id, p.name, p.color
			ORDER BY value DESC
			LIMIT $1`
	case "bullseyes":
		query = `
			SELECT p.id, p.name, p.color, COUNT(*) AS value
			FROM players p
			JOIN sessions s ON s.player_id = p.id
			JOIN shot_events se ON se.session_id = s.id AND se.hit AND se.band = $3
			WHERE ($2 = '' OR s.game_mode = $2)
			GROUP BY p.id, p.name, p.color
			ORDER BY value DESC
			LIMIT $1`
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	args := []any{limit, mode}
	if category == "bullseyes" {
		args = append(args, bullseyeBand)
	}
	rows, err := q.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.PlayerName, &e.PlayerColor, &e.Value); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (q *Queries) GetModeStats(ctx context.Context) ([]ModeStats, error) {
	rows, err := q.DB.Query(ctx, `
		SELECT game_mode, COUNT(*), AVG(score)::float8, AVG(accuracy)::float8,
			MAX(score), MAX(best_streak), MAX(ended_at)
		FROM sessions
		GROUP BY game_mode
		ORDER BY game_mode
	`)
	if err != nil {
		return nil, fmt.Errorf("getting mode stats: %w", err)
	}
	defer rows.Close()

	var out []ModeStats
	for rows.Next() {
		var m ModeStats
		if err := rows.Scan(&m.GameMode, &m.Sessions, &m.AvgScore, &m.AvgAccuracy, &m.BestScore, &m.BestStreak, &m.LastPlayed); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
