package tui

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rshade/framebatch/internal/engine/history"
)

// RenderReport renders a finished run report as plain text.
func RenderReport(r *history.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s (%s)\n", r.ID, r.Mode)
	fmt.Fprintf(&b, "  started:     %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "  duration:    %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "  budget:      %s\n", FormatMillis(r.BudgetMs))
	fmt.Fprintf(&b, "  frames:      %s\n", FormatCount(r.Frames))
	fmt.Fprintf(&b, "  overruns:    %s (%s)\n", FormatCount(r.OverrunFrames), FormatPercent(r.OverrunRate()))
	fmt.Fprintf(&b, "  exhausted:   %s\n", FormatCount(r.ExhaustedFrames))
	fmt.Fprintf(&b, "  worst frame: %s\n", FormatMillis(float64(r.WorstElapsed)/float64(time.Millisecond)))
	fmt.Fprintf(&b, "  mean util:   %s\n", FormatPercent(r.MeanUtilization))
	fmt.Fprintf(&b, "  health:      %s\n", HealthStyle(r.WorstHealth).Render(r.WorstHealth.String()))
	if len(r.Workload) > 0 {
		fmt.Fprintf(&b, "  workload:    %s\n", strings.Join(r.Workload, ", "))
	}

	t := r.Totals
	fmt.Fprintf(&b, "  jobs:        enqueued=%s processed=%s removed=%s panics=%s clamped=%s\n",
		FormatCount(t.Enqueued), FormatCount(t.Processed), FormatCount(t.Removed),
		FormatCount(t.Panics), FormatCount(t.ClampedCosts))
	return b.String()
}

// RenderReportTable renders one line per report, newest first as given.
func RenderReportTable(reports []history.RunReport) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, tabwriterPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODE\tSTARTED\tFRAMES\tBUDGET\tOVERRUNS\tMEAN UTIL\tHEALTH")
	for i := range reports {
		r := &reports[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Mode,
			r.StartedAt.Format(time.DateTime),
			FormatCount(r.Frames),
			FormatMillis(r.BudgetMs),
			FormatPercent(r.OverrunRate()),
			FormatPercent(r.MeanUtilization),
			r.WorstHealth,
		)
	}
	_ = tw.Flush()
	return b.String()
}
