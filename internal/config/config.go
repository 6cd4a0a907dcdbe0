// Package config defines the service configuration and the player's game
// settings, and how they map onto a session's mode rules.
package config

import (
	"context"
	"strings"

	"aimy/internal/modes"
)

// Config is the process configuration. Settings is squashed so game keys sit
// at the top level next to the service keys.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	Port        string `koanf:"port"`
	DatabaseURL string `koanf:"database_url"`

	// ArenaWidth and ArenaHeight bound target placement, in px.
	ArenaWidth  int `koanf:"arena_width"`
	ArenaHeight int `koanf:"arena_height"`

	Settings Settings `koanf:",squash"`
}

// Settings is the player-facing settings surface. Durations are in ms.
type Settings struct {
	Difficulty         string `koanf:"difficulty" json:"difficulty"`
	TargetGoals        int    `koanf:"target_goals" json:"targetGoals"`
	TargetMove         bool   `koanf:"target_move" json:"targetMove"`
	TargetSpeed        int    `koanf:"target_speed" json:"targetSpeed"`
	TargetSize         int    `koanf:"target_size" json:"targetSize"`
	TargetTimeExists   int    `koanf:"target_time_exists" json:"targetTimeExists"`
	GameMode           string `koanf:"game_mode" json:"gameMode"`
	TimeFrenzyDuration int    `koanf:"time_frenzy_duration" json:"timeFrenzyDuration"`
	HydraMode          string `koanf:"hydra_mode" json:"hydraMode"`
	HydraTargetCount   int    `koanf:"hydra_target_count" json:"hydraTargetCount"`
	HydraTotalTime     int    `koanf:"hydra_total_time" json:"hydraTotalTime"`

	EnableSoundEffects bool `koanf:"enable_sound_effects" json:"enableSoundEffects"`
	SoundVolume        int  `koanf:"sound_volume" json:"soundVolume"`
	EnableEffects      bool `koanf:"enable_effects" json:"enableEffects"`

	StatsFormat     string `koanf:"stats_format" json:"statsFormat"`
	StatsDirectory  string `koanf:"stats_directory" json:"statsDirectory"`
	EnableStatsSave bool   `koanf:"enable_stats_save" json:"enableStatsSave"`

	EnableExtension           bool `koanf:"enable_extension" json:"enableExtension"`
	IdleTimer                 int  `koanf:"idle_timer" json:"idleTimer"`
	CloseWorkspaceOnGameStart bool `koanf:"close_workspace_on_game_start" json:"closeWorkspaceOnGameStart"`

	Theme      string `koanf:"theme" json:"theme,omitempty"`
	FontFamily string `koanf:"font_family" json:"fontFamily,omitempty"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		Port:        "8080",
		ArenaWidth:  1280,
		ArenaHeight: 720,
		Settings:    DefaultSettings(),
	}
}

func DefaultSettings() Settings {
	return Settings{
		Difficulty:                "Normal",
		TargetGoals:               5,
		TargetMove:                false,
		TargetSpeed:               3000,
		TargetSize:                100,
		TargetTimeExists:          3000,
		GameMode:                  "Target Rush",
		TimeFrenzyDuration:        60000,
		HydraMode:                 "Target Count",
		HydraTargetCount:          20,
		HydraTotalTime:            60000,
		EnableSoundEffects:        true,
		SoundVolume:               80,
		EnableEffects:             true,
		StatsFormat:               "json",
		EnableStatsSave:           true,
		EnableExtension:           true,
		IdleTimer:                 60000,
		CloseWorkspaceOnGameStart: true,
		Theme:                     "dark",
		FontFamily:                "Segoe UI",
	}
}

// Clamp pulls every numeric setting into its supported range and
// normalizes the enumerated ones.
func (s *Settings) Clamp() {
	s.TargetGoals = clampInt(s.TargetGoals, 1, 1000)
	s.TargetSpeed = clampInt(s.TargetSpeed, 0, 20000)
	s.TargetSize = clampInt(s.TargetSize, 10, 500)
	s.TargetTimeExists = clampInt(s.TargetTimeExists, 0, 60000)
	s.TimeFrenzyDuration = clampInt(s.TimeFrenzyDuration, 1000, 3600000)
	s.HydraTargetCount = clampInt(s.HydraTargetCount, 1, 1000)
	s.HydraTotalTime = clampInt(s.HydraTotalTime, 1000, 3600000)
	s.SoundVolume = clampInt(s.SoundVolume, 0, 100)
	s.IdleTimer = clampInt(s.IdleTimer, 1000, 86400000)

	s.Difficulty = normalizeDifficulty(s.Difficulty)
	if _, ok := modes.ParseMode(s.GameMode); !ok {
		s.GameMode = DefaultSettings().GameMode
	}
	if _, ok := modes.ParseHydraVariant(s.HydraMode); !ok {
		s.HydraMode = DefaultSettings().HydraMode
	}
	switch strings.ToLower(strings.TrimSpace(s.StatsFormat)) {
	case "csv":
		s.StatsFormat = "csv"
	default:
		s.StatsFormat = "json"
	}
	s.StatsDirectory = strings.TrimSpace(s.StatsDirectory)
}

func (c *Config) Clamp() {
	if c.ArenaWidth < 100 {
		c.ArenaWidth = 100
	}
	if c.ArenaHeight < 100 {
		c.ArenaHeight = 100
	}
	c.Settings.Clamp()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
