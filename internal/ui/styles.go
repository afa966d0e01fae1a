package ui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors that work in both light and dark terminals.
var (
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008000", Dark: "#3FB950"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#F85149"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#8B949E"}
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
)
