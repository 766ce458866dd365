// Package render prints pipeline results for the terminal.
//
// Styles are bound to the destination writer, so output redirected to a file or
// a test buffer carries no escape codes.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#B4A0FF"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
)

// Styles holds the lipgloss styles for one writer.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Muted  lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
	Box    lipgloss.Style
	Bullet string
}

// NewStyles builds styles whose color profile follows w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:  r.NewStyle().Bold(true).Foreground(colorAccent),
		Label:  r.NewStyle().Bold(true),
		Muted:  r.NewStyle().Foreground(colorMuted),
		Good:   r.NewStyle().Foreground(colorSuccess),
		Warn:   r.NewStyle().Foreground(colorWarning),
		Bad:    r.NewStyle().Foreground(colorDanger).Bold(true),
		Box:    r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1),
		Bullet: "-",
	}
}

// Score colors a [0, 1] score by band.
func (s Styles) Score(score float64) lipgloss.Style {
	switch {
	case score >= 0.7:
		return s.Good
	case score >= 0.4:
		return s.Warn
	default:
		return s.Bad
	}
}
