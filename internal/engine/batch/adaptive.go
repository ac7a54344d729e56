package batch

import (
	"errors"
	"fmt"
)

// Adaptive budget defaults.
const (
	DefaultAdaptiveMinFactor  = 0.5
	DefaultAdaptiveMaxFactor  = 2.0
	DefaultAdaptiveHighWater  = 0.9
	DefaultAdaptiveLowWater   = 0.7
	DefaultAdaptiveShrinkRate = 0.95
	DefaultAdaptiveGrowRate   = 1.05
)

// ErrInvalidAdaptiveConfig is returned for inconsistent adaptive settings.
var ErrInvalidAdaptiveConfig = errors.New("invalid adaptive budget configuration")

// AdaptiveConfig scales the effective budget from recent utilization. After a
// frame above HighWater the factor shrinks by ShrinkRate; below LowWater it
// grows by GrowRate. The factor stays within [MinFactor, MaxFactor].
type AdaptiveConfig struct {
	Enabled    bool    `yaml:"enabled"     json:"enabled"`
	MinFactor  float64 `yaml:"min_factor"  json:"min_factor"`
	MaxFactor  float64 `yaml:"max_factor"  json:"max_factor"`
	HighWater  float64 `yaml:"high_water"  json:"high_water"`
	LowWater   float64 `yaml:"low_water"   json:"low_water"`
	ShrinkRate float64 `yaml:"shrink_rate" json:"shrink_rate"`
	GrowRate   float64 `yaml:"grow_rate"   json:"grow_rate"`
}

// DefaultAdaptiveConfig returns the default tuning with adaptation disabled.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		MinFactor:  DefaultAdaptiveMinFactor,
		MaxFactor:  DefaultAdaptiveMaxFactor,
		HighWater:  DefaultAdaptiveHighWater,
		LowWater:   DefaultAdaptiveLowWater,
		ShrinkRate: DefaultAdaptiveShrinkRate,
		GrowRate:   DefaultAdaptiveGrowRate,
	}
}

// Validate checks the tuning. Disabled configs are always valid.
func (a AdaptiveConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.MinFactor <= 0 || a.MaxFactor < a.MinFactor || a.MinFactor > 1 || a.MaxFactor < 1 {
		return fmt.Errorf("%w: factor range [%.2f, %.2f] must contain 1", ErrInvalidAdaptiveConfig, a.MinFactor, a.MaxFactor)
	}
	if a.LowWater <= 0 || a.HighWater < a.LowWater {
		return fmt.Errorf("%w: low_water %.2f must be positive and <= high_water %.2f",
			ErrInvalidAdaptiveConfig, a.LowWater, a.HighWater)
	}
	if a.ShrinkRate <= 0 || a.ShrinkRate > 1 || a.GrowRate < 1 {
		return fmt.Errorf("%w: shrink_rate must be in (0,1] and grow_rate >= 1", ErrInvalidAdaptiveConfig)
	}
	return nil
}

type adaptiveState struct {
	cfg    AdaptiveConfig
	factor float64
}

func newAdaptiveState(cfg AdaptiveConfig) *adaptiveState {
	return &adaptiveState{cfg: cfg, factor: 1}
}

func (a *adaptiveState) update(utilization float64) {
	switch {
	case utilization > a.cfg.HighWater:
		a.factor = max(a.factor*a.cfg.ShrinkRate, a.cfg.MinFactor)
	case utilization < a.cfg.LowWater:
		a.factor = min(a.factor*a.cfg.GrowRate, a.cfg.MaxFactor)
	}
}
