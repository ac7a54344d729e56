package batch

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overrunFrame(frame uint64) FrameStats {
	return FrameStats{
		Frame:       frame,
		Budget:      2 * time.Millisecond,
		Elapsed:     3 * time.Millisecond,
		Utilization: 1.5,
		StopReason:  StopBudget,
	}
}

func calmFrame(frame uint64) FrameStats {
	return FrameStats{
		Frame:       frame,
		Budget:      2 * time.Millisecond,
		Elapsed:     time.Millisecond,
		Utilization: 0.5,
	}
}

func TestNewMonitor_Defaults(t *testing.T) {
	m := NewMonitor(MonitorConfig{}, zerolog.Nop())
	assert.Equal(t, DefaultMonitorConfig(), m.cfg)
	assert.True(t, m.Healthy())
	assert.Empty(t, m.Starving())
	assert.False(t, m.Overrunning())
}

func TestMonitor_OverrunStreak(t *testing.T) {
	var buf bytes.Buffer
	m := NewMonitor(MonitorConfig{OverrunAlertFrames: 3, StarvationFrames: 10}, zerolog.New(&buf))

	m.ObserveFrame(overrunFrame(1))
	m.ObserveFrame(overrunFrame(2))
	assert.False(t, m.Overrunning())

	m.ObserveFrame(overrunFrame(3))
	assert.True(t, m.Overrunning())
	assert.False(t, m.Healthy())
	assert.Contains(t, buf.String(), "repeatedly exceeding frame budget")

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap.Frames)
	assert.Equal(t, uint64(3), snap.OverrunFrames)
	assert.Equal(t, 3, snap.OverrunStreak)
	assert.Equal(t, HealthExceeded, snap.WorstHealth)
	assert.Equal(t, uint64(3), snap.Last.Frame)
	assert.False(t, snap.Healthy())

	m.ObserveFrame(calmFrame(4))
	assert.False(t, m.Overrunning())
	assert.True(t, m.Healthy())
	assert.Equal(t, 0, m.Snapshot().OverrunStreak)
	assert.Equal(t, HealthExceeded, m.Snapshot().WorstHealth, "worst health is sticky")
	assert.Contains(t, buf.String(), "back within frame budget")
}

func TestMonitor_ExactBudgetIsNotOverrun(t *testing.T) {
	m := NewMonitor(MonitorConfig{OverrunAlertFrames: 1}, zerolog.Nop())
	m.ObserveFrame(FrameStats{Budget: time.Millisecond, Elapsed: time.Millisecond, Utilization: 1})
	assert.False(t, m.Overrunning())

	snap := m.Snapshot()
	assert.Zero(t, snap.OverrunFrames)
	assert.Equal(t, HealthCritical, snap.WorstHealth)
}

func TestMonitor_Starvation(t *testing.T) {
	var buf bytes.Buffer
	m := NewMonitor(MonitorConfig{OverrunAlertFrames: 3, StarvationFrames: 4}, zerolog.New(&buf))

	starved := func(frame uint64) FrameStats {
		s := calmFrame(frame)
		s.Categories[CategoryAI] = CategoryStats{Category: CategoryAI, Deferred: 5}
		s.Categories[CategoryTransform] = CategoryStats{Category: CategoryTransform, Processed: 3}
		return s
	}

	for i := range uint64(3) {
		m.ObserveFrame(starved(i + 1))
	}
	assert.Empty(t, m.Starving())

	m.ObserveFrame(starved(4))
	assert.Equal(t, []Category{CategoryAI}, m.Starving())
	assert.False(t, m.Healthy())
	assert.Contains(t, buf.String(), "category starving")

	// A single frame of progress clears the alert.
	recovered := starved(5)
	recovered.Categories[CategoryAI].Processed = 1
	m.ObserveFrame(recovered)
	assert.Empty(t, m.Starving())
	assert.True(t, m.Healthy())
	assert.Contains(t, buf.String(), "category recovered")
}

func TestMonitor_ConcurrentReaders(t *testing.T) {
	m := NewMonitor(DefaultMonitorConfig(), zerolog.Nop())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				_ = m.Snapshot()
				_ = m.Healthy()
			}
		}()
	}
	for i := range uint64(200) {
		m.ObserveFrame(calmFrame(i))
	}
	wg.Wait()

	require.Equal(t, uint64(200), m.Snapshot().Frames)
}
