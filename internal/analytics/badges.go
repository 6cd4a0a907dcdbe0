package analytics

import "aimy/internal/stats"

type BadgeID string

const (
	BadgeSharpshooter  BadgeID = "sharpshooter"
	BadgeFlawless      BadgeID = "flawless"
	BadgeUnstoppable   BadgeID = "unstoppable"
	BadgeCenturion     BadgeID = "centurion"
	BadgeTriggerHappy  BadgeID = "trigger_happy"
	BadgeVeteran       BadgeID = "veteran"
	BadgePerfectionist BadgeID = "perfectionist"
)

type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

var AllBadges = map[BadgeID]Badge{
	BadgeSharpshooter:  {ID: BadgeSharpshooter, Name: "Sharpshooter", Description: "10+ bullseyes in a single session", Icon: "🎯"},
	BadgeFlawless:      {ID: BadgeFlawless, Name: "Flawless", Description: "100% accuracy over at least 10 shots", Icon: "💎"},
	BadgeUnstoppable:   {ID: BadgeUnstoppable, Name: "Unstoppable", Description: "Best streak of 25 or more", Icon: "🔥"},
	BadgeCenturion:     {ID: BadgeCenturion, Name: "Centurion", Description: "100+ points in a single session", Icon: "💯"},
	BadgeTriggerHappy:  {ID: BadgeTriggerHappy, Name: "Trigger Happy", Description: "3+ shots per second average", Icon: "🖱️"},
	BadgeVeteran:       {ID: BadgeVeteran, Name: "Veteran", Description: "Played 10+ sessions", Icon: "🏅"},
	BadgePerfectionist: {ID: BadgePerfectionist, Name: "Perfectionist", Description: "50%+ bullseye rate over at least 10 hits", Icon: "✨"},
}

// FromSummary seeds session stats from a final summary. Shot aggregates stay
// zero until filled from recorded shots.
func FromSummary(sessionID string, s stats.Summary) SessionStats {
	return SessionStats{
		SessionID:  sessionID,
		GameMode:   s.GameMode,
		Score:      s.Score,
		TimeSecs:   s.Time,
		Accuracy:   s.Accuracy,
		BestStreak: s.BestStreak,
	}
}

// EvaluateSessionBadges checks which badges a single session earned.
func EvaluateSessionBadges(s SessionStats) []Badge {
	var earned []Badge

	if s.Bullseyes >= 10 {
		earned = append(earned, AllBadges[BadgeSharpshooter])
	}
	// Accuracy of 100 means every shot scored, so Score is the shot count.
	if s.Accuracy == 100 && s.Score >= 10 {
		earned = append(earned, AllBadges[BadgeFlawless])
	}
	if s.BestStreak >= 25 {
		earned = append(earned, AllBadges[BadgeUnstoppable])
	}
	if s.Score >= 100 {
		earned = append(earned, AllBadges[BadgeCenturion])
	}
	if s.ShotsPerSecond >= 3.0 {
		earned = append(earned, AllBadges[BadgeTriggerHappy])
	}
	if s.Score >= 10 && s.BullseyeRate >= 50.0 {
		earned = append(earned, AllBadges[BadgePerfectionist])
	}

	return earned
}

// EvaluateLifetimeBadges checks which badges a player earned across sessions.
func EvaluateLifetimeBadges(s PlayerLifetimeStats) []Badge {
	var earned []Badge

	if s.SessionsPlayed >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}

	return earned
}
