package tui

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// tabwriterPadding is the minimum padding between summary columns.
const tabwriterPadding = 2

// RenderSummary renders a frame snapshot and the run totals as plain text,
// for output that is not a terminal.
func RenderSummary(stats batch.FrameStats, totals batch.Totals) string {
	var b strings.Builder

	fmt.Fprintf(&b, "frame %s  %s / %s  (%s, %s)  stop=%s\n",
		FormatCount(stats.Frame),
		FormatMillis(stats.ElapsedMillis()),
		FormatMillis(stats.BudgetMillis()),
		FormatPercent(stats.Utilization),
		stats.Health(),
		stats.StopReason,
	)

	tw := tabwriter.NewWriter(&b, 0, 0, tabwriterPadding, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tQUEUED\tPROCESSED\tDEFERRED\tPEAK\tOLDEST WAIT\tTOTAL PROCESSED")
	for _, cat := range batch.Categories() {
		cs := stats.Categories[cat]
		ct := totals.Categories[cat]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			cat,
			cs.QueuedAtStart,
			cs.Processed,
			cs.Deferred,
			cs.PeakDepth,
			cs.OldestWait,
			FormatCount(ct.Processed),
		)
	}
	_ = tw.Flush()

	fmt.Fprintf(&b, "totals: frames=%s enqueued=%s processed=%s removed=%s overruns=%s (%s) panics=%s clamped=%s\n",
		FormatCount(totals.Frames),
		FormatCount(totals.Enqueued),
		FormatCount(totals.Processed),
		FormatCount(totals.Removed),
		FormatCount(totals.Overruns),
		FormatPercent(totals.OverrunRate()),
		FormatCount(totals.Panics),
		FormatCount(totals.ClampedCosts),
	)
	return b.String()
}

// RenderAlerts describes the active monitor alerts, or "" when healthy.
func RenderAlerts(snap batch.MonitorSnapshot) string {
	var parts []string
	if snap.Overrunning {
		parts = append(parts, "over budget for "+strconv.Itoa(snap.OverrunStreak)+" consecutive frames")
	}
	if len(snap.Starving) > 0 {
		parts = append(parts, "starving: "+FormatCategories(snap.Starving))
	}
	return strings.Join(parts, "; ")
}
