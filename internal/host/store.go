package host

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aimy/internal/analytics"
	"aimy/internal/db"
	"aimy/internal/logger"
	"aimy/internal/stats"
)

// storeSession records the session row, then evaluates and awards badges.
// Badge problems are logged; only the session row is required.
func (h *Host) storeSession(ctx context.Context, sess Session, s stats.Summary, at time.Time) ([]analytics.Badge, error) {
	settings, err := json.Marshal(sess.Settings)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	err = h.store.RecordSession(ctx, db.SessionRecord{
		ID:         sess.ID,
		PlayerID:   sess.PlayerID,
		RoomCode:   sess.RoomCode,
		GameMode:   s.GameMode,
		Difficulty: sess.Settings.Difficulty,
		Score:      s.Score,
		TimeSecs:   s.Time,
		Accuracy:   s.Accuracy,
		BestStreak: s.BestStreak,
		Settings:   settings,
		EndedAt:    at,
	})
	if err != nil {
		return nil, err
	}

	ss := analytics.FromSummary(sess.ID, s)
	ss.PlayerID = sess.PlayerID
	if h.shots != nil {
		if err := h.shots.Flush(ctx); err != nil {
			h.log.Warn(ctx, "flushing shots", logger.Error(err))
		}
	}
	if h.analytics != nil {
		if err := h.analytics.FillShotStats(ctx, &ss); err != nil {
			h.log.Warn(ctx, "reading shot stats", logger.Error(err))
		}
	}
	badges := analytics.EvaluateSessionBadges(ss)

	if sess.PlayerID == "" {
		return badges, nil
	}
	sessionID := sess.ID
	for _, b := range badges {
		h.award(ctx, sess.PlayerID, b, &sessionID)
	}
	if h.analytics != nil {
		life, err := h.analytics.GetPlayerLifetimeStats(ctx, sess.PlayerID)
		if err != nil {
			h.log.Warn(ctx, "reading lifetime stats", logger.Error(err))
			return badges, nil
		}
		for _, b := range analytics.EvaluateLifetimeBadges(*life) {
			h.award(ctx, sess.PlayerID, b, nil)
			badges = append(badges, b)
		}
	}
	return badges, nil
}

func (h *Host) award(ctx context.Context, playerID string, b analytics.Badge, sessionID *string) {
	if err := h.store.AwardBadge(ctx, playerID, string(b.ID), sessionID); err != nil {
		h.log.Warn(ctx, "awarding badge", logger.String("badge", string(b.ID)), logger.Error(err))
	}
}
