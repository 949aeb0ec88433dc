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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CITYFIX_CONFIG is set
//  3. env (prefix CITYFIX_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CITYFIX_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CITYFIX_ADDR, CITYFIX_POSTGRES_DSN, ...
	// Keys map flat, preserving underscores to match koanf tags.
	envProvider := env.Provider("CITYFIX_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "cityfix_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.AtRiskLookaheadHours < 1 {
		return fmt.Errorf("%w: at_risk_lookahead_hours must be positive", ErrInvalidConfig)
	}
	if c.ViolationsLimit < 1 {
		return fmt.Errorf("%w: violations_limit must be positive", ErrInvalidConfig)
	}
	for priority, hours := range c.SLAHours {
		if hours < 1 {
			return fmt.Errorf("%w: sla_hours.%s must be positive", ErrInvalidConfig, priority)
		}
	}
	return nil
}
