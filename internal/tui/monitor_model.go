package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// Layout defaults.
const (
	defaultWidth  = 80
	barPadding    = 4
	tableHeight   = batch.NumCategories + 3
	keyQuit       = "q"
	keyCtrlC      = "ctrl+c"
	keyPause      = "p"
	maxBarPercent = 1.0
)

// FrameMsg carries one dispatched frame to the overlay.
type FrameMsg struct {
	Stats    batch.FrameStats
	Totals   batch.Totals
	Snapshot batch.MonitorSnapshot
}

// StreamClosedMsg is sent when the frame channel is closed.
type StreamClosedMsg struct{}

// WaitForFrame returns a command that receives the next frame from ch.
func WaitForFrame(ch <-chan FrameMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return StreamClosedMsg{}
		}
		return msg
	}
}

// MonitorModel is the Bubble Tea model for the live performance overlay.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type MonitorModel struct {
	frames <-chan FrameMsg

	table table.Model
	bar   progress.Model

	last     FrameMsg
	received bool
	paused   bool
	quitting bool
	width    int
}

// NewMonitorModel creates an overlay reading frames from ch.
func NewMonitorModel(ch <-chan FrameMsg) MonitorModel {
	m := MonitorModel{
		frames: ch,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:  defaultWidth,
	}
	m.bar.Width = defaultWidth - barPadding
	m.table = newCategoryTable()
	return m
}

// Init starts listening for frames (Bubble Tea interface).
func (m MonitorModel) Init() tea.Cmd {
	return WaitForFrame(m.frames)
}

// Update handles messages (Bubble Tea interface).
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-barPadding, 10) //nolint:mnd // minimum bar width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case keyQuit, keyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case keyPause:
			m.paused = !m.paused
		}
		return m, nil

	case FrameMsg:
		if !m.paused {
			m.last = msg
			m.received = true
			m.table.SetRows(categoryRows(msg))
		}
		return m, WaitForFrame(m.frames)

	case StreamClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the overlay (Bubble Tea interface).
func (m MonitorModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("FRAMEBATCH MONITOR"))
	if m.paused {
		b.WriteString("  " + SubtleStyle.Render("(paused)"))
	}
	b.WriteString("\n\n")

	if !m.received {
		b.WriteString(SubtleStyle.Render("waiting for first frame..."))
		b.WriteString("\n")
		return b.String()
	}

	stats := m.last.Stats
	health := stats.Health()

	b.WriteString(LabelStyle.Render("Frame "))
	b.WriteString(ValueStyle.Render(FormatCount(stats.Frame)))
	b.WriteString(LabelStyle.Render("   Elapsed "))
	b.WriteString(ValueStyle.Render(FormatMillis(stats.ElapsedMillis())))
	b.WriteString(LabelStyle.Render(" / "))
	b.WriteString(ValueStyle.Render(FormatMillis(stats.BudgetMillis())))
	b.WriteString("   ")
	b.WriteString(HealthStyle(health).Render(strings.ToUpper(health.String()) + " " + FormatPercent(stats.Utilization)))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(min(stats.Utilization, maxBarPercent)))
	b.WriteString("\n\n")

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	totals := m.last.Totals
	b.WriteString(LabelStyle.Render("Processed "))
	b.WriteString(ValueStyle.Render(FormatCount(totals.Processed)))
	b.WriteString(LabelStyle.Render("   Overruns "))
	b.WriteString(ValueStyle.Render(FormatCount(totals.Overruns)))
	b.WriteString(LabelStyle.Render("   Panics "))
	b.WriteString(ValueStyle.Render(FormatCount(totals.Panics)))
	b.WriteString("\n")

	if alerts := RenderAlerts(m.last.Snapshot); alerts != "" {
		b.WriteString(AlertStyle.Render("ALERT: " + alerts))
		b.WriteString("\n")
	}

	b.WriteString(SubtleStyle.Render("q quit  p pause"))
	return b.String()
}

// Paused reports whether display updates are paused.
func (m MonitorModel) Paused() bool {
	return m.paused
}

// Last returns the most recently displayed frame.
func (m MonitorModel) Last() (FrameMsg, bool) {
	return m.last, m.received
}

func newCategoryTable() table.Model {
	columns := []table.Column{
		{Title: "Category", Width: 12},  //nolint:mnd // Column width.
		{Title: "Queued", Width: 8},     //nolint:mnd // Column width.
		{Title: "Processed", Width: 10}, //nolint:mnd // Column width.
		{Title: "Deferred", Width: 9},   //nolint:mnd // Column width.
		{Title: "Peak", Width: 7},       //nolint:mnd // Column width.
		{Title: "Oldest", Width: 12},    //nolint:mnd // Column width.
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(tableHeight),
	)

	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)
	return t
}

func categoryRows(msg FrameMsg) []table.Row {
	rows := make([]table.Row, 0, batch.NumCategories)
	for _, cat := range batch.Categories() {
		cs := msg.Stats.Categories[cat]
		rows = append(rows, table.Row{
			cat.String(),
			strconv.Itoa(cs.QueuedAtStart),
			strconv.Itoa(cs.Processed),
			strconv.Itoa(cs.Deferred),
			strconv.Itoa(cs.PeakDepth),
			cs.OldestWait.String(),
		})
	}
	return rows
}
