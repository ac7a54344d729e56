package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/framebatch/internal/engine/batch"
	"github.com/rshade/framebatch/internal/engine/history"
)

func sampleReport() history.RunReport {
	started := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	return history.RunReport{
		ID:              "01J0000000000000000000000A",
		Mode:            history.ModeStep,
		StartedAt:       started,
		FinishedAt:      started.Add(10 * time.Second),
		BudgetMs:        2.5,
		Workload:        []string{"transform-sync", "npc-ai"},
		Frames:          600,
		OverrunFrames:   30,
		ExhaustedFrames: 120,
		WorstElapsed:    3100 * time.Microsecond,
		MeanUtilization: 0.82,
		WorstHealth:     batch.HealthExceeded,
		Totals:          batch.Totals{Enqueued: 15000, Processed: 14990},
	}
}

func TestRenderReport(t *testing.T) {
	r := sampleReport()
	out := RenderReport(&r)

	assert.Contains(t, out, "Run 01J0000000000000000000000A (step)")
	assert.Contains(t, out, "10s")
	assert.Contains(t, out, "2.500ms")
	assert.Contains(t, out, "30 (5.0%)")
	assert.Contains(t, out, "3.100ms")
	assert.Contains(t, out, "82.0%")
	assert.Contains(t, out, "transform-sync, npc-ai")
	assert.Contains(t, out, "enqueued=15,000 processed=14,990")
}

func TestRenderReportTable(t *testing.T) {
	a := sampleReport()
	b := sampleReport()
	b.ID = "01J0000000000000000000000B"
	b.Mode = history.ModeRealtime

	out := RenderReportTable([]history.RunReport{a, b})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "MEAN UTIL")
	assert.Contains(t, lines[1], a.ID)
	assert.Contains(t, lines[1], "2026-05-04 10:30:00")
	assert.Contains(t, lines[2], "realtime")
}
