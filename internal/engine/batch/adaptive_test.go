package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptiveConfig_Validate(t *testing.T) {
	enabled := func(mut func(*AdaptiveConfig)) AdaptiveConfig {
		cfg := DefaultAdaptiveConfig()
		cfg.Enabled = true
		mut(&cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     AdaptiveConfig
		wantErr bool
	}{
		{"DisabledDefault", DefaultAdaptiveConfig(), false},
		{"DisabledGarbage", AdaptiveConfig{MinFactor: -4}, false},
		{"EnabledDefault", enabled(func(*AdaptiveConfig) {}), false},
		{"MinAboveOne", enabled(func(c *AdaptiveConfig) { c.MinFactor = 1.2 }), true},
		{"MaxBelowOne", enabled(func(c *AdaptiveConfig) { c.MaxFactor = 0.8 }), true},
		{"ZeroMin", enabled(func(c *AdaptiveConfig) { c.MinFactor = 0 }), true},
		{"WaterInverted", enabled(func(c *AdaptiveConfig) { c.LowWater = 0.95 }), true},
		{"ShrinkAboveOne", enabled(func(c *AdaptiveConfig) { c.ShrinkRate = 1.1 }), true},
		{"GrowBelowOne", enabled(func(c *AdaptiveConfig) { c.GrowRate = 0.9 }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAdaptiveConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAdaptiveState_Update(t *testing.T) {
	cfg := DefaultAdaptiveConfig()
	cfg.Enabled = true
	a := newAdaptiveState(cfg)

	a.update(0.8)
	assert.InDelta(t, 1.0, a.factor, 1e-12, "between the water marks nothing changes")

	a.update(0.95)
	assert.InDelta(t, 0.95, a.factor, 1e-12)

	for range 100 {
		a.update(1.5)
	}
	assert.InDelta(t, cfg.MinFactor, a.factor, 1e-12)

	a.update(0.1)
	assert.InDelta(t, cfg.MinFactor*cfg.GrowRate, a.factor, 1e-12)
}
