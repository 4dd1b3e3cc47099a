package tui

import "github.com/charmbracelet/lipgloss"

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

type styles struct {
	title    lipgloss.Style
	status   lipgloss.Style
	selected lipgloss.Style
	cursor   lipgloss.Style
	dim      lipgloss.Style
	success  lipgloss.Style
	error    lipgloss.Style
	info     lipgloss.Style
	help     lipgloss.Style
	app      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		cursor: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)).
			Bold(true),
		dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)).
			Bold(true),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		app: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaPurple)).
			Foreground(lipgloss.Color(draculaForeground)),
	}
}
