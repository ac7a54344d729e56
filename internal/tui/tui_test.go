package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/framebatch/internal/engine/batch"
)

func sampleFrame() FrameMsg {
	stats := batch.FrameStats{
		Frame:       1234,
		Budget:      2500 * time.Microsecond,
		Elapsed:     2250 * time.Microsecond,
		Utilization: 0.9,
		Processed:   7,
		Deferred:    2,
		StopReason:  batch.StopBudget,
	}
	for _, cat := range batch.Categories() {
		stats.Categories[cat].Category = cat
	}
	stats.Categories[batch.CategoryAI] = batch.CategoryStats{
		Category: batch.CategoryAI, QueuedAtStart: 4, Processed: 2, Deferred: 2, PeakDepth: 9,
		OldestWait: 40 * time.Millisecond,
	}
	totals := batch.Totals{Frames: 1234, Enqueued: 15000, Processed: 14990, Overruns: 12}
	totals.Categories[batch.CategoryAI].Processed = 12345
	return FrameMsg{Stats: stats, Totals: totals}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "2.500ms", FormatMillis(2.5))
	assert.Equal(t, "87.5%", FormatPercent(0.875))
	assert.Equal(t, "physics, ai", FormatCategories([]batch.Category{batch.CategoryPhysics, batch.CategoryAI}))
}

func TestHealthColor(t *testing.T) {
	assert.Equal(t, ColorOK, HealthColor(batch.HealthOK))
	assert.Equal(t, ColorWarning, HealthColor(batch.HealthWarning))
	assert.Equal(t, ColorCritical, HealthColor(batch.HealthCritical))
	assert.Equal(t, ColorExceeded, HealthColor(batch.HealthExceeded))
	assert.Equal(t, ColorMuted, HealthColor(batch.HealthUnspecified))
}

func TestRenderSummary(t *testing.T) {
	msg := sampleFrame()
	out := RenderSummary(msg.Stats, msg.Totals)

	assert.Contains(t, out, "frame 1,234")
	assert.Contains(t, out, "2.250ms / 2.500ms")
	assert.Contains(t, out, "critical")
	assert.Contains(t, out, "stop=budget")
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "enqueued=15,000")
	assert.Contains(t, out, "overruns=12 (1.0%)")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+1+batch.NumCategories+1)
	assert.True(t, strings.HasPrefix(lines[2], "transform"))
	assert.True(t, strings.HasPrefix(lines[6], "ai"))
}

func TestRenderAlerts(t *testing.T) {
	assert.Empty(t, RenderAlerts(batch.MonitorSnapshot{}))
	assert.Equal(t,
		"over budget for 4 consecutive frames; starving: lod, ai",
		RenderAlerts(batch.MonitorSnapshot{
			Overrunning:   true,
			OverrunStreak: 4,
			Starving:      []batch.Category{batch.CategoryLOD, batch.CategoryAI},
		}),
	)
}

func TestMonitorModel_WaitingView(t *testing.T) {
	m := NewMonitorModel(make(chan FrameMsg))
	assert.Contains(t, m.View(), "waiting for first frame")
	_, ok := m.Last()
	assert.False(t, ok)
}

func TestMonitorModel_FrameUpdates(t *testing.T) {
	ch := make(chan FrameMsg, 1)
	m := NewMonitorModel(ch)

	msg := sampleFrame()
	msg.Snapshot = batch.MonitorSnapshot{Starving: []batch.Category{batch.CategoryAI}}

	updated, cmd := m.Update(msg)
	require.NotNil(t, cmd, "model keeps listening for frames")
	mm := updated.(MonitorModel)

	last, ok := mm.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(1234), last.Stats.Frame)

	view := mm.View()
	assert.Contains(t, view, "FRAMEBATCH MONITOR")
	assert.Contains(t, view, "CRITICAL")
	assert.Contains(t, view, "starving: ai")
	assert.Contains(t, view, "40ms")

	// The returned command delivers the next frame from the channel.
	next := sampleFrame()
	next.Stats.Frame = 1235
	ch <- next
	got := cmd()
	assert.Equal(t, uint64(1235), got.(FrameMsg).Stats.Frame)
}

func TestMonitorModel_PauseHoldsDisplay(t *testing.T) {
	m := NewMonitorModel(make(chan FrameMsg))
	updated, _ := m.Update(sampleFrame())
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	mm := updated.(MonitorModel)
	require.True(t, mm.Paused())
	assert.Contains(t, mm.View(), "(paused)")

	next := sampleFrame()
	next.Stats.Frame = 9999
	updated, _ = mm.Update(next)
	last, _ := updated.(MonitorModel).Last()
	assert.Equal(t, uint64(1234), last.Stats.Frame)
}

func TestMonitorModel_Quit(t *testing.T) {
	m := NewMonitorModel(make(chan FrameMsg))
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, updated.View())

	ch := make(chan FrameMsg)
	close(ch)
	assert.IsType(t, StreamClosedMsg{}, WaitForFrame(ch)())

	_, cmd = NewMonitorModel(ch).Update(StreamClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMonitorModel_WindowResize(t *testing.T) {
	m := NewMonitorModel(make(chan FrameMsg))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 116, updated.(MonitorModel).bar.Width)
}
