package batch

import (
	"sync"

	"github.com/rs/zerolog"
)

// Monitor defaults.
const (
	DefaultOverrunAlertFrames = 3
	DefaultStarvationFrames   = 60
)

// MonitorConfig tunes when the monitor raises alerts.
type MonitorConfig struct {
	// OverrunAlertFrames is the number of consecutive over-budget frames after
	// which the scheduler is reported as overrunning.
	OverrunAlertFrames int `yaml:"overrun_alert_frames" json:"overrun_alert_frames" env:"FRAMEBATCH_OVERRUN_ALERT_FRAMES"`

	// StarvationFrames is the number of consecutive frames in which a category
	// had queued work but executed none before it is reported as starving.
	StarvationFrames int `yaml:"starvation_frames" json:"starvation_frames" env:"FRAMEBATCH_STARVATION_FRAMES"`
}

// DefaultMonitorConfig returns the default alert thresholds.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		OverrunAlertFrames: DefaultOverrunAlertFrames,
		StarvationFrames:   DefaultStarvationFrames,
	}
}

// MonitorSnapshot is a copy of the monitor state for display surfaces.
type MonitorSnapshot struct {
	Frames        uint64     `json:"frames"`
	OverrunFrames uint64     `json:"overrun_frames"`
	OverrunStreak int        `json:"overrun_streak"`
	Overrunning   bool       `json:"overrunning"`
	Starving      []Category `json:"starving,omitempty"`
	WorstHealth   Health     `json:"worst_health"`
	Last          FrameStats `json:"last"`
}

// Healthy reports whether no alert is active.
func (s MonitorSnapshot) Healthy() bool {
	return !s.Overrunning && len(s.Starving) == 0
}

// Monitor watches dispatch snapshots for repeated overruns and starving
// categories. It only reports; it never changes scheduling. Monitor is safe for
// concurrent use so display goroutines can read while the frame loop writes.
type Monitor struct {
	cfg    MonitorConfig
	logger zerolog.Logger

	mu            sync.RWMutex
	frames        uint64
	overrunFrames uint64
	overrunStreak int
	overrunning   bool
	starveStreak  [NumCategories]int
	starving      [NumCategories]bool
	worst         Health
	last          FrameStats
}

// NewMonitor creates a monitor. Non-positive thresholds fall back to defaults.
func NewMonitor(cfg MonitorConfig, logger zerolog.Logger) *Monitor {
	if cfg.OverrunAlertFrames <= 0 {
		cfg.OverrunAlertFrames = DefaultOverrunAlertFrames
	}
	if cfg.StarvationFrames <= 0 {
		cfg.StarvationFrames = DefaultStarvationFrames
	}
	return &Monitor{cfg: cfg, logger: logger}
}

// ObserveFrame folds one dispatch snapshot into the monitor.
func (m *Monitor) ObserveFrame(stats FrameStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames++
	m.last = stats
	m.worst = AggregateHealth(m.worst, stats.Health())

	if stats.Overrun() {
		m.overrunFrames++
		m.overrunStreak++
	} else {
		m.overrunStreak = 0
	}

	overrunning := m.overrunStreak >= m.cfg.OverrunAlertFrames
	if overrunning != m.overrunning {
		m.overrunning = overrunning
		if overrunning {
			m.logger.Warn().
				Uint64("frame", stats.Frame).
				Int("streak", m.overrunStreak).
				Float64("elapsed_ms", stats.ElapsedMillis()).
				Float64("budget_ms", stats.BudgetMillis()).
				Msg("dispatch repeatedly exceeding frame budget")
		} else {
			m.logger.Info().Uint64("frame", stats.Frame).Msg("dispatch back within frame budget")
		}
	}

	for _, cat := range Categories() {
		cs := stats.Categories[cat]
		if cs.Deferred > 0 && cs.Processed == 0 {
			m.starveStreak[cat]++
		} else {
			m.starveStreak[cat] = 0
		}

		starving := m.starveStreak[cat] >= m.cfg.StarvationFrames
		if starving == m.starving[cat] {
			continue
		}
		m.starving[cat] = starving
		if starving {
			m.logger.Warn().
				Str("category", cat.String()).
				Uint64("frame", stats.Frame).
				Int("deferred", cs.Deferred).
				Dur("oldest_wait", cs.OldestWait).
				Msg("category starving")
		} else {
			m.logger.Info().Str("category", cat.String()).Uint64("frame", stats.Frame).Msg("category recovered")
		}
	}
}

// Overrunning reports whether the overrun streak has reached the alert threshold.
func (m *Monitor) Overrunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overrunning
}

// Starving returns the categories currently flagged as starving, in priority order.
func (m *Monitor) Starving() []Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.starvingLocked()
}

// Healthy reports whether no alert is active.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.overrunning && len(m.starvingLocked()) == 0
}

// Snapshot returns a copy of the monitor state.
func (m *Monitor) Snapshot() MonitorSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MonitorSnapshot{
		Frames:        m.frames,
		OverrunFrames: m.overrunFrames,
		OverrunStreak: m.overrunStreak,
		Overrunning:   m.overrunning,
		Starving:      m.starvingLocked(),
		WorstHealth:   m.worst,
		Last:          m.last,
	}
}

func (m *Monitor) starvingLocked() []Category {
	var out []Category
	for _, cat := range Categories() {
		if m.starving[cat] {
			out = append(out, cat)
		}
	}
	return out
}
