// Package stats accumulates score, shots, streaks and accuracy for a session.
package stats

import "math"

// Accumulator keeps shots >= score >= 0 and a non-decreasing best streak.
type Accumulator struct {
	score      int
	shots      int
	streak     int
	bestStreak int
}

// Snapshot is the running state reported after each event.
type Snapshot struct {
	Score      int `json:"score"`
	Shots      int `json:"shots"`
	Streak     int `json:"streak"`
	BestStreak int `json:"bestStreak"`
	Accuracy   int `json:"accuracy"`
}

// Summary is the final report of a completed session.
type Summary struct {
	Score      int    `json:"score"`
	Time       int    `json:"time"` // whole seconds, floored
	Accuracy   int    `json:"accuracy"`
	BestStreak int    `json:"bestStreak"`
	GameMode   string `json:"gameMode"`
}

func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

func (a *Accumulator) RecordHit(points int) {
	a.shots++
	a.score += points
	a.streak++
	a.updateBest()
}

func (a *Accumulator) RecordMiss() {
	a.shots++
	a.streak = 0
	a.updateBest()
}

// RecordExpiry breaks the streak without counting a shot.
func (a *Accumulator) RecordExpiry() {
	a.streak = 0
	a.updateBest()
}

func (a *Accumulator) updateBest() {
	if a.streak > a.bestStreak {
		a.bestStreak = a.streak
	}
}

func (a *Accumulator) Score() int { return a.score }

func (a *Accumulator) Shots() int { return a.shots }

func (a *Accumulator) Streak() int { return a.streak }

func (a *Accumulator) BestStreak() int { return a.bestStreak }

func (a *Accumulator) Accuracy() int {
	return Accuracy(a.score, a.shots)
}

func (a *Accumulator) Snapshot() Snapshot {
	return Snapshot{
		Score:      a.score,
		Shots:      a.shots,
		Streak:     a.streak,
		BestStreak: a.bestStreak,
		Accuracy:   a.Accuracy(),
	}
}

// Summarize builds the final summary for a session that ran elapsedSeconds.
func (a *Accumulator) Summarize(mode string, elapsedSeconds int) Summary {
	return Summary{
		Score:      a.score,
		Time:       elapsedSeconds,
		Accuracy:   a.Accuracy(),
		BestStreak: a.bestStreak,
		GameMode:   mode,
	}
}

// Accuracy is round(score/shots*100), or 100 when nothing has been fired.
func Accuracy(score, shots int) int {
	if shots <= 0 {
		return 100
	}
	acc := int(math.Round(float64(score) / float64(shots) * 100))
	if acc < 0 {
		return 0
	}
	if acc > 100 {
		return 100
	}
	return acc
}
