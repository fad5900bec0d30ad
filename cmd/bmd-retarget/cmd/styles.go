package cmd

import "github.com/charmbracelet/lipgloss"

var (
	green = lipgloss.Color("#10B981")
	amber = lipgloss.Color("#F59E0B")
	red   = lipgloss.Color("#EF4444")
	muted = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	okStyle   = lipgloss.NewStyle().Foreground(green)
	warnStyle = lipgloss.NewStyle().Foreground(amber)
	failStyle = lipgloss.NewStyle().Foreground(red).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(muted)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)
