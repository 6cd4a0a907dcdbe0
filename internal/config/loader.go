package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load layers, low to high: defaults, the YAML file named by AIMY_CONFIG,
// then AIMY_ environment variables. The result is clamped.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv("AIMY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// AIMY_TARGET_GOALS -> target_goals
	envProvider := env.Provider("AIMY_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "aimy_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if strings.TrimSpace(cfg.Port) == "" {
		return nil, fmt.Errorf("%w: port must not be empty", ErrInvalidConfig)
	}
	cfg.Clamp()
	return &cfg, nil
}
