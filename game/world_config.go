package game

import "strings"

const defaultWorldSeed = "prototype"

// WorldConfig captures the tunables used when constructing a world.
type WorldConfig struct {
	Seed  string  `json:"seed"`
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`

	// MaxMoveSpeed, when positive, enables server-side rejection of client
	// positions that imply a displacement rate above this many units per
	// second. Zero keeps the prototype's trusted-client behavior: reported
	// positions are applied without plausibility checks.
	MaxMoveSpeed float64 `json:"maxMoveSpeed"`
}

// normalized returns a config with defaults applied.
func (cfg WorldConfig) normalized() WorldConfig {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaultWorldSeed
	}
	if normalized.Width <= 0 {
		normalized.Width = defaultWorldWidth
	}
	if normalized.Depth <= 0 {
		normalized.Depth = defaultWorldDepth
	}
	if normalized.MaxMoveSpeed < 0 {
		normalized.MaxMoveSpeed = 0
	}
	return normalized
}

// DefaultWorldConfig returns the stock arena configuration.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{Seed: defaultWorldSeed, Width: defaultWorldWidth, Depth: defaultWorldDepth}
}
