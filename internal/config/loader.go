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
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if CRFOREST_CONFIG is set
//  3. env (prefix CRFOREST_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CRFOREST_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CRFOREST_SEED, CRFOREST_TREE_COUNT, ...
	// Map env keys like CRFOREST_TREE_COUNT -> tree_count (flat keys).
	// A double underscore descends into nested sections: CRFOREST_DATA__PATH -> data.path.
	envProvider := env.Provider("CRFOREST_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "crforest_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural invariants the rest of the pipeline relies on.
func (c *Config) Validate() error {
	switch {
	case c.Folds < 2:
		return fmt.Errorf("%w: folds must be >= 2, got %d", ErrInvalidConfig, c.Folds)
	case c.Repeats < 1:
		return fmt.Errorf("%w: repeats must be >= 1, got %d", ErrInvalidConfig, c.Repeats)
	case c.TreeCount < 1:
		return fmt.Errorf("%w: tree_count must be >= 1, got %d", ErrInvalidConfig, c.TreeCount)
	case len(c.MinLeafGrid) == 0 || len(c.MaxDepthGrid) == 0:
		return fmt.Errorf("%w: hyperparameter grid must not be empty", ErrInvalidConfig)
	case len(c.Horizons) == 0:
		return fmt.Errorf("%w: at least one horizon is required", ErrInvalidConfig)
	case c.TimeCap <= 0:
		return fmt.Errorf("%w: time_cap must be positive, got %g", ErrInvalidConfig, c.TimeCap)
	case c.TimeStep <= 0:
		return fmt.Errorf("%w: time_step must be positive, got %g", ErrInvalidConfig, c.TimeStep)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	case c.Data.TimeColumn == "" || c.Data.EventColumn == "":
		return fmt.Errorf("%w: outcome columns must be named", ErrInvalidConfig)
	}
	for _, h := range c.Horizons {
		if h <= 0 || h > c.TimeCap {
			return fmt.Errorf("%w: horizon %g outside (0, %g]", ErrInvalidConfig, h, c.TimeCap)
		}
	}
	return nil
}

// EvalTimes derives the evaluation time grid: step, 2*step, ..., cap.
// The cap itself is always included so horizon metrics line up with the
// tail of the curve.
func (c *Config) EvalTimes() []float64 {
	var times []float64
	for t := c.TimeStep; t < c.TimeCap; t += c.TimeStep {
		times = append(times, t)
	}
	times = append(times, c.TimeCap)
	return times
}
