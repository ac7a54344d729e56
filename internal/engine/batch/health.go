package batch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHealth is returned when parsing an unknown health name.
var ErrInvalidHealth = errors.New("invalid health level")

// Utilization thresholds, in percent of the frame budget.
const (
	// HealthThresholdWarning is the utilization at which a frame is WARNING.
	HealthThresholdWarning = 80.0

	// HealthThresholdCritical is the utilization at which a frame is CRITICAL.
	HealthThresholdCritical = 90.0

	// HealthThresholdExceeded is the utilization a frame must pass to be
	// EXCEEDED. A pass that ends exactly on its deadline is CRITICAL, matching
	// FrameStats.Overrun.
	HealthThresholdExceeded = 100.0

	percentMultiplier = 100
)

// Health classifies how much of the frame budget a dispatch pass consumed.
// Higher values are worse.
type Health uint8

// Health levels.
const (
	HealthUnspecified Health = iota
	HealthOK
	HealthWarning
	HealthCritical
	HealthExceeded
)

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthWarning:
		return "warning"
	case HealthCritical:
		return "critical"
	case HealthExceeded:
		return "exceeded"
	default:
		return "unspecified"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// ParseHealth parses a health name as produced by String.
func ParseHealth(s string) (Health, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for h := HealthUnspecified; h <= HealthExceeded; h++ {
		if h.String() == name {
			return h, nil
		}
	}
	return HealthUnspecified, fmt.Errorf("%w: got %q", ErrInvalidHealth, s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Health) UnmarshalText(text []byte) error {
	parsed, err := ParseHealth(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HealthFromUtilization classifies a utilization ratio (elapsed / budget).
//
// Thresholds:
//   - OK: below 80%
//   - WARNING: 80-89%
//   - CRITICAL: 90-100%
//   - EXCEEDED: above 100%
//
// Negative ratios are treated as 0%.
func HealthFromUtilization(utilization float64) Health {
	pct := utilization * percentMultiplier
	switch {
	case pct > HealthThresholdExceeded:
		return HealthExceeded
	case pct >= HealthThresholdCritical:
		return HealthCritical
	case pct >= HealthThresholdWarning:
		return HealthWarning
	default:
		return HealthOK
	}
}

// AggregateHealth returns the worst health among hs, or HealthUnspecified for none.
func AggregateHealth(hs ...Health) Health {
	worst := HealthUnspecified
	for _, h := range hs {
		if h > worst {
			worst = h
		}
	}
	return worst
}
