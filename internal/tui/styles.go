package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// Palette.
const (
	ColorHeader   = lipgloss.Color("39")
	ColorLabel    = lipgloss.Color("245")
	ColorValue    = lipgloss.Color("255")
	ColorMuted    = lipgloss.Color("240")
	ColorOK       = lipgloss.Color("42")
	ColorWarning  = lipgloss.Color("214")
	ColorCritical = lipgloss.Color("202")
	ColorExceeded = lipgloss.Color("196")
)

// Shared styles.
//
//nolint:gochecknoglobals // Style values are immutable after init.
var (
	HeaderStyle        = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	LabelStyle         = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle         = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	SubtleStyle        = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	AlertStyle         = lipgloss.NewStyle().Foreground(ColorExceeded).Bold(true)
	BoxStyle           = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorMuted).Padding(0, 1)
	TableHeaderStyle   = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true).BorderBottom(true)
	TableSelectedStyle = lipgloss.NewStyle().Foreground(ColorValue)
)

// HealthColor returns the display color for a health level.
func HealthColor(h batch.Health) lipgloss.Color {
	switch h {
	case batch.HealthOK:
		return ColorOK
	case batch.HealthWarning:
		return ColorWarning
	case batch.HealthCritical:
		return ColorCritical
	case batch.HealthExceeded:
		return ColorExceeded
	default:
		return ColorMuted
	}
}

// HealthStyle returns a bold style colored for h.
func HealthStyle(h batch.Health) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(HealthColor(h)).Bold(true)
}
