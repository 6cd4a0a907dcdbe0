package config

import (
	"fmt"
	"strings"
	"time"

	"aimy/internal/modes"
)

const (
	DifficultyEasy   = "Easy"
	DifficultyNormal = "Normal"
	DifficultyHard   = "Hard"
)

// preset scales the configured target size, speed and lifetime. Normal
// leaves the settings as written; Easy and Hard are this service's own
// tuning and are applied only when a session's mode config is built.
type preset struct {
	size, speed, lifetime float64
}

var presets = map[string]preset{
	DifficultyEasy:   {size: 1.25, speed: 0.75, lifetime: 1.5},
	DifficultyNormal: {size: 1, speed: 1, lifetime: 1},
	DifficultyHard:   {size: 0.75, speed: 1.25, lifetime: 0.75},
}

func normalizeDifficulty(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	}
	return DifficultyNormal
}

// SpeedPerSecond converts the speed setting, in thousandths of a px per
// 60fps frame, to px per second.
func SpeedPerSecond(setting int) float64 {
	return float64(setting) / 1000 * 60
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ModeConfig builds the immutable rule set for a session from these settings.
func (s Settings) ModeConfig() (modes.Config, error) {
	mode, ok := modes.ParseMode(s.GameMode)
	if !ok {
		return modes.Config{}, fmt.Errorf("%w: unknown game mode %q", modes.ErrInvalidConfiguration, s.GameMode)
	}

	cfg := modes.Config{
		Mode:        mode,
		TargetSize:  float64(s.TargetSize),
		Move:        s.TargetMove,
		Speed:       SpeedPerSecond(s.TargetSpeed),
		Lifetime:    millis(s.TargetTimeExists),
		Concurrency: modes.ConcurrencyFor(mode),
	}
	switch mode {
	case modes.TargetRush:
		cfg.TargetGoal = s.TargetGoals
	case modes.TimeFrenzy:
		cfg.TimeLimit = millis(s.TimeFrenzyDuration)
	case modes.HydraTargets:
		variant, ok := modes.ParseHydraVariant(s.HydraMode)
		if !ok {
			return modes.Config{}, fmt.Errorf("%w: unknown hydra mode %q", modes.ErrInvalidConfiguration, s.HydraMode)
		}
		cfg.Hydra = variant
		if variant == modes.HydraTimed {
			cfg.TimeLimit = millis(s.HydraTotalTime)
		} else {
			cfg.TargetGoal = s.HydraTargetCount
		}
	}

	p := presets[normalizeDifficulty(s.Difficulty)]
	cfg.TargetSize *= p.size
	cfg.Speed *= p.speed
	cfg.Lifetime = time.Duration(float64(cfg.Lifetime) * p.lifetime)

	if err := cfg.Validate(); err != nil {
		return modes.Config{}, err
	}
	return cfg, nil
}
